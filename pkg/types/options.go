package types

// WriteMode selects how link fields behave during a write.
type WriteMode int

const (
	// ModeLink writes every linked component as its own entry and leaves a
	// link in the parent.
	ModeLink WriteMode = iota
	// ModeFlat ignores links and embeds components in the parent, exactly as
	// an encode outside any store would.
	ModeFlat
)

// ConflictPolicy decides what happens when a write targets an existing file
// and WriteOptions.Overwrite is false.
type ConflictPolicy int

const (
	// ConflictFail rejects the write with ErrWriteConflict.
	ConflictFail ConflictPolicy = iota
	// ConflictKeep leaves the existing file untouched. Links written for it
	// point at the existing file and carry its checksum.
	ConflictKeep
	// ConflictRename writes to <name>_0, <name>_1, ... using the first free
	// name. Links written for it carry the adjusted name.
	ConflictRename
)

// WriteOptions configures a store write and every nested component write it
// triggers.
type WriteOptions struct {
	// EmitChecksum includes the checksum of each written component file in
	// the links left behind.
	EmitChecksum bool

	// Pretty requests human-formatted bytes from the format.
	Pretty bool

	// Overwrite allows replacing an existing file. When false, OnConflict
	// decides.
	Overwrite bool

	// OnConflict applies only when Overwrite is false.
	OnConflict ConflictPolicy

	// Mode selects link or flat writing.
	Mode WriteMode

	// Alias renames written files: an entry named k is stored as Alias[k],
	// and links to it name Alias[k].
	Alias map[string]string
}

// DefaultWriteOptions returns options that emit checksums, pretty-print, and
// refuse to replace existing files.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		EmitChecksum: true,
		Pretty:       true,
	}
}

// FileName returns the storage name for an entry named name, honoring Alias.
func (o WriteOptions) FileName(name string) string {
	if alias, ok := o.Alias[name]; ok && alias != "" {
		return alias
	}
	return name
}
