// Package unpack turns an uploaded payload into the sequence of eligible
// source documents it contains.
package unpack

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/common"
)

// Entry is one eligible source document recovered from an upload.
type Entry struct {
	Name string
	Data []byte
}

// Iterator yields entries lazily. It is finite and non-restartable: once
// Next returns false the sequence is exhausted and Err reports any entry
// read failure.
type Iterator struct {
	plain   *Entry
	archive *zip.Reader
	pos     int
	err     error
}

// Open inspects the declared filename and returns an iterator over the
// eligible documents in data. A plain document yields itself; an archive is
// flattened one level (directories, non-document entries and nested archives
// are skipped). Unknown filenames fail with UNSUPPORTED_FORMAT; unreadable
// archives fail with CORRUPT_ARCHIVE.
func Open(filename string, data []byte) (*Iterator, error) {
	switch {
	case constants.IsDocument(filename):
		return &Iterator{plain: &Entry{Name: filename, Data: data}}, nil
	case constants.IsArchive(filename):
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, common.NewAppError(common.KindCorruptArchive,
				fmt.Sprintf("cannot open archive %q", filename), err)
		}
		return &Iterator{archive: zr}, nil
	default:
		return nil, common.NewAppError(common.KindUnsupportedFormat,
			fmt.Sprintf("unsupported file %q: only PDF or ZIP uploads are accepted", filename), nil)
	}
}

// Next returns the next eligible entry. It returns false when the sequence
// is exhausted or a read error occurred; check Err after the loop.
func (it *Iterator) Next() (Entry, bool) {
	if it.err != nil {
		return Entry{}, false
	}
	if it.plain != nil {
		e := *it.plain
		it.plain = nil
		return e, true
	}
	if it.archive == nil {
		return Entry{}, false
	}
	for it.pos < len(it.archive.File) {
		f := it.archive.File[it.pos]
		it.pos++
		if f.FileInfo().IsDir() || !constants.IsDocument(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			it.err = common.NewAppError(common.KindCorruptArchive,
				fmt.Sprintf("cannot open archive entry %q", f.Name), err)
			return Entry{}, false
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			it.err = common.NewAppError(common.KindCorruptArchive,
				fmt.Sprintf("cannot read archive entry %q", f.Name), err)
			return Entry{}, false
		}
		return Entry{Name: f.Name, Data: data}, true
	}
	return Entry{}, false
}

// Err reports the first entry read failure, if any.
func (it *Iterator) Err() error {
	return it.err
}
