// Package mosaic stores structured values as a tree of files under one root,
// one file per entry at <root>/<TypeName>/<name>.<ext>.
//
// A field declared as Link[T], OptLink[T], Shared[T] or OptShared[T] is
// written as its own entry and replaced in its parent by a link, a small
// mapping {"name": ..., "checksum": ...}. Reading the parent resolves the
// link back into a value. Shared links resolve through the Manager's Cache,
// so every composite read through one Manager that links the same shared
// component observes the same *T until the component's file changes.
//
// Outside a Manager call the link field types encode and decode exactly like
// the component they hold, so the same types work with plain json.Marshal
// and yaml.Marshal.
//
// Example:
//
//	type Material struct {
//	    ID   string `json:"id"`
//	    Name string `json:"name"`
//	}
//
//	func (m Material) EntryName() string { return m.ID }
//
//	type Garment struct {
//	    ID     string                   `json:"id"`
//	    Fabric mosaic.Shared[Material] `json:"fabric"`
//	}
//
//	func (g Garment) EntryName() string { return g.ID }
//
//	m, err := mosaic.Open(".mosaic-db", format.JSON())
//	_, err = m.Write(garment, types.DefaultWriteOptions())
//	g, err := mosaic.Read[Garment](m, "shirt")
package mosaic
