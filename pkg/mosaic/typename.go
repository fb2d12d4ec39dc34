package mosaic

import (
	"reflect"

	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// typeNameOf returns the type name an entry of type t is stored under:
// EntryType() when the type provides it, else the unqualified Go type name.
// Pointer types resolve to their element type.
func typeNameOf(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if n, ok := reflect.Zero(t).Interface().(types.TypeNamer); ok {
		return n.EntryType()
	}
	if n, ok := reflect.New(t).Interface().(types.TypeNamer); ok {
		return n.EntryType()
	}
	return t.Name()
}

func typeNameFor[T any]() string {
	return typeNameOf(reflect.TypeFor[T]())
}

func entryTypeName(e types.Entry) string {
	if n, ok := e.(types.TypeNamer); ok {
		return n.EntryType()
	}
	return typeNameOf(reflect.TypeOf(e))
}
