package mosaic

import (
	"bytes"
	"errors"
	"encoding/json"
	"maps"
	"reflect"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// Link holds a component that a Manager write stores as its own entry. Every
// read yields an independent copy of the component.
type Link[T types.Entry] struct {
	Value T
}

// OptLink is a Link that may be absent. An absent OptLink is stored as a
// link with an empty name and is never resolved.
type OptLink[T types.Entry] struct {
	Value T
	Valid bool
}

// Shared holds a component that reads resolve through the Manager's Cache,
// so composites linking the same component name share one *T.
type Shared[T types.Entry] struct {
	Value *T
}

// OptShared is a Shared that may be absent; a nil Value is absent.
type OptShared[T types.Entry] struct {
	Value *T
}

// NewLink returns a Link holding v.
func NewLink[T types.Entry](v T) Link[T] { return Link[T]{Value: v} }

// SomeLink returns a present OptLink holding v.
func SomeLink[T types.Entry](v T) OptLink[T] { return OptLink[T]{Value: v, Valid: true} }

// NewShared returns a Shared pointing at v.
func NewShared[T types.Entry](v *T) Shared[T] { return Shared[T]{Value: v} }

// SomeShared returns an OptShared pointing at v.
func SomeShared[T types.Entry](v *T) OptShared[T] { return OptShared[T]{Value: v} }

// linkSource classifies the encoded form found in a link field.
type linkSource int

const (
	srcNull   linkSource = iota // Null or missing.
	srcInline                   // The full component.
	srcLink                     // A link mapping.
)

// linkInput is a decoded link field, independent of the format it came from.
type linkInput struct {
	f      *frame // Nil outside a read.
	src    linkSource
	ref    types.LinkRef
	inline func(target any) error
}

func jsonInput(data []byte) (linkInput, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return linkInput{src: srcNull}, nil
	}
	in := linkInput{
		src:    srcInline,
		inline: func(target any) error { return json.Unmarshal(data, target) },
	}
	f, ok := resolvingFrame()
	if !ok || len(trimmed) == 0 || trimmed[0] != '{' {
		return in, nil
	}
	in.f = f

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return linkInput{}, err
	}
	if !types.IsLinkKeys(slices.Collect(maps.Keys(fields))) {
		return in, nil
	}
	if err := json.Unmarshal(trimmed, &in.ref); err != nil {
		return linkInput{}, err
	}
	in.src = srcLink
	return in, nil
}

func yamlInput(node *yaml.Node) (linkInput, error) {
	n := node
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return linkInput{src: srcNull}, nil
	}
	in := linkInput{
		src:    srcInline,
		inline: func(target any) error { return node.Decode(target) },
	}
	f, ok := resolvingFrame()
	if !ok || n.Kind != yaml.MappingNode {
		return in, nil
	}
	in.f = f

	keys := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	if !types.IsLinkKeys(keys) {
		return in, nil
	}
	if err := n.Decode(&in.ref); err != nil {
		return linkInput{}, err
	}
	in.src = srcLink
	return in, nil
}

// encodeComponent returns what a present link field encodes as: a link to
// the stored component during a linking write, the component itself
// otherwise.
func encodeComponent(v types.Entry) (any, error) {
	f, ok := linkingFrame()
	if !ok {
		return v, nil
	}
	return f.link(v)
}

// encodeAbsent returns what an absent optional field encodes as.
func encodeAbsent() any {
	if _, ok := linkingFrame(); ok {
		return types.LinkRef{}
	}
	return nil
}

func emptyLinkError[T types.Entry]() error {
	return types.NewEntryError(types.OpRead, typeNameFor[T](), "", types.ErrInvalidName, nil)
}

func decodeOwned[T types.Entry](in linkInput) (T, error) {
	var v T
	switch in.src {
	case srcNull:
		return v, nil
	case srcInline:
		err := in.inline(&v)
		return v, err
	}
	if in.ref.Empty() {
		return v, emptyLinkError[T]()
	}
	_, err := in.f.loadLinked(typeNameFor[T](), in.ref, decodeInto(&v))
	return v, err
}

func decodeShared[T types.Entry](in linkInput) (*T, error) {
	switch in.src {
	case srcNull:
		return nil, nil
	case srcInline:
		v := new(T)
		if err := in.inline(v); err != nil {
			return nil, err
		}
		return v, nil
	}
	if in.ref.Empty() {
		return nil, emptyLinkError[T]()
	}

	f := in.f
	typeName := typeNameFor[T]()
	if f.visiting[entryKey{typeName, in.ref.Name}] {
		return nil, types.NewEntryError(types.OpRead, typeName, in.ref.Name, types.ErrLinkCycle, nil)
	}
	key := cacheKey{typ: reflect.TypeFor[T](), name: in.ref.Name}
	v, loaded, err := f.m.cache.resolve(key, in.ref.Checksum, func() (any, uint32, error) {
		p := new(T)
		sum, err := f.loadLinked(typeName, in.ref, decodeInto(p))
		return p, sum, err
	})
	if errors.Is(err, errWaitCycle) {
		return nil, types.NewEntryError(types.OpRead, typeName, in.ref.Name, types.ErrLinkCycle, nil)
	}
	if err != nil {
		return nil, err
	}
	if !loaded {
		f.m.logger.Debug("cache hit", "op", f.opID, "type", typeName, "name", in.ref.Name)
	}
	return v.(*T), nil
}

// absent reports whether an optional field decodes to no value.
func (in linkInput) absent() bool {
	return in.src == srcNull || (in.src == srcLink && in.ref.Empty())
}

func (l Link[T]) MarshalJSON() ([]byte, error) {
	out, err := encodeComponent(l.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (l *Link[T]) UnmarshalJSON(data []byte) error {
	in, err := jsonInput(data)
	if err != nil {
		return err
	}
	v, err := decodeOwned[T](in)
	if err != nil {
		return err
	}
	l.Value = v
	return nil
}

func (l Link[T]) MarshalYAML() (any, error) {
	return encodeComponent(l.Value)
}

func (l *Link[T]) UnmarshalYAML(node *yaml.Node) error {
	in, err := yamlInput(node)
	if err != nil {
		return err
	}
	v, err := decodeOwned[T](in)
	if err != nil {
		return err
	}
	l.Value = v
	return nil
}

func (l OptLink[T]) MarshalJSON() ([]byte, error) {
	if !l.Valid {
		return json.Marshal(encodeAbsent())
	}
	out, err := encodeComponent(l.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (l *OptLink[T]) UnmarshalJSON(data []byte) error {
	in, err := jsonInput(data)
	if err != nil {
		return err
	}
	return l.decode(in)
}

func (l OptLink[T]) MarshalYAML() (any, error) {
	if !l.Valid {
		return encodeAbsent(), nil
	}
	return encodeComponent(l.Value)
}

func (l *OptLink[T]) UnmarshalYAML(node *yaml.Node) error {
	in, err := yamlInput(node)
	if err != nil {
		return err
	}
	return l.decode(in)
}

func (l *OptLink[T]) decode(in linkInput) error {
	if in.absent() {
		*l = OptLink[T]{}
		return nil
	}
	v, err := decodeOwned[T](in)
	if err != nil {
		return err
	}
	*l = OptLink[T]{Value: v, Valid: true}
	return nil
}

func (l Shared[T]) MarshalJSON() ([]byte, error) {
	out, err := l.encode()
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (l *Shared[T]) UnmarshalJSON(data []byte) error {
	in, err := jsonInput(data)
	if err != nil {
		return err
	}
	v, err := decodeShared[T](in)
	if err != nil {
		return err
	}
	l.Value = v
	return nil
}

func (l Shared[T]) MarshalYAML() (any, error) {
	return l.encode()
}

func (l *Shared[T]) UnmarshalYAML(node *yaml.Node) error {
	in, err := yamlInput(node)
	if err != nil {
		return err
	}
	v, err := decodeShared[T](in)
	if err != nil {
		return err
	}
	l.Value = v
	return nil
}

func (l Shared[T]) encode() (any, error) {
	if l.Value != nil {
		return encodeComponent(*l.Value)
	}
	if _, ok := linkingFrame(); ok {
		return nil, types.NewEntryError(types.OpWrite, typeNameFor[T](), "", types.ErrNilEntry, nil)
	}
	return nil, nil
}

func (l OptShared[T]) MarshalJSON() ([]byte, error) {
	if l.Value == nil {
		return json.Marshal(encodeAbsent())
	}
	out, err := encodeComponent(*l.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (l *OptShared[T]) UnmarshalJSON(data []byte) error {
	in, err := jsonInput(data)
	if err != nil {
		return err
	}
	return l.decode(in)
}

func (l OptShared[T]) MarshalYAML() (any, error) {
	if l.Value == nil {
		return encodeAbsent(), nil
	}
	return encodeComponent(*l.Value)
}

func (l *OptShared[T]) UnmarshalYAML(node *yaml.Node) error {
	in, err := yamlInput(node)
	if err != nil {
		return err
	}
	return l.decode(in)
}

func (l *OptShared[T]) decode(in linkInput) error {
	if in.absent() {
		l.Value = nil
		return nil
	}
	v, err := decodeShared[T](in)
	if err != nil {
		return err
	}
	l.Value = v
	return nil
}
