package constants

import "strings"

// DocumentExt is the suffix for eligible source documents.
const DocumentExt = ".pdf"

// ArchiveExt is the suffix for supported upload archives. Nested archives
// inside an archive are not unpacked.
const ArchiveExt = ".zip"

// IsDocument reports whether the filename names an eligible source document.
func IsDocument(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), DocumentExt)
}

// IsArchive reports whether the filename names a supported archive.
func IsArchive(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ArchiveExt)
}
