package types

// WriteInfo reports the files touched by a verbose write, including every
// nested component write.
type WriteInfo struct {
	OpID        string   // UUID v7 of the write call.
	Created     []string // Files that did not exist before.
	Overwritten []string // Existing files that were replaced.
	Kept        []string // Existing files left untouched under ConflictKeep.
}

// ReadInfo reports details of a verbose read.
type ReadInfo struct {
	OpID       string             // UUID v7 of the read call.
	Mismatches []ChecksumMismatch // Linked files that changed since their link was written.
}

// ChecksumMismatch records a linked file whose current checksum differs from
// the checksum stored in the link. The file is still read; a mismatch is
// information, not a failure.
type ChecksumMismatch struct {
	Link uint32 // Checksum carried by the link.
	File uint32 // Checksum of the file as loaded.
	Path string // Path of the linked file.
}
