package types

// Entry is a value that can be stored as a standalone record. EntryName
// returns the storage key for this instance; it becomes the file name under
// the entry's type directory and the name carried by links to it.
//
// Components referenced through link fields must implement Entry with a value
// receiver so both T and *T satisfy it.
type Entry interface {
	EntryName() string
}

// TypeNamer lets an entry override its type identity. Without it the
// unqualified Go type name is used (Material, not example.Material).
// EntryType must not depend on field values.
type TypeNamer interface {
	EntryType() string
}
