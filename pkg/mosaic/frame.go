package mosaic

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/mosaic/internal/checksum"
	"github.com/mesh-intelligence/mosaic/internal/scope"
	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// frames holds the resolution context of every Manager call in flight, one
// stack per goroutine.
var frames scope.Stack[*frame]

type frameKind int

const (
	frameWrite frameKind = iota
	frameRead
)

type entryKey struct {
	typeName string
	name     string
}

// stored describes an entry file produced or kept by a write.
type stored struct {
	name string // File name stem, after alias and rename.
	path string
	sum  uint32
	data []byte // Encoded bytes, compared when the entry recurs in the same call.
}

// frame is the resolution context of one top-level Manager call. It is only
// touched by the goroutine that entered it.
type frame struct {
	m    *Manager
	kind frameKind
	opts types.WriteOptions
	opID string

	visiting map[entryKey]bool
	written  map[entryKey]stored

	writeInfo types.WriteInfo
	readInfo  types.ReadInfo
}

func (m *Manager) enter(kind frameKind, opts types.WriteOptions) (*frame, func()) {
	id := newOpID()
	f := &frame{
		m:         m,
		kind:      kind,
		opts:      opts,
		opID:      id,
		visiting:  make(map[entryKey]bool),
		written:   make(map[entryKey]stored),
		writeInfo: types.WriteInfo{OpID: id},
		readInfo:  types.ReadInfo{OpID: id},
	}
	return f, frames.Enter(f)
}

// newOpID generates a UUID v7 string for one Manager call.
func newOpID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// linkingFrame returns the frame of the write in progress on this goroutine
// when that write turns link fields into links.
func linkingFrame() (*frame, bool) {
	f, ok := frames.Current()
	if !ok || f.kind != frameWrite || f.opts.Mode == types.ModeFlat {
		return nil, false
	}
	return f, true
}

// resolvingFrame returns the frame of the read in progress on this goroutine.
func resolvingFrame() (*frame, bool) {
	f, ok := frames.Current()
	if !ok || f.kind != frameRead {
		return nil, false
	}
	return f, true
}

// writeEntry stores e as its own file and returns where it went. Within one
// frame an entry that recurs with the same encoding is written once; one that
// recurs with different content goes through the conflict policy again.
func (f *frame) writeEntry(e types.Entry) (stored, error) {
	typeName := entryTypeName(e)
	name := e.EntryName()
	key := entryKey{typeName, name}
	if prev, ok := f.written[key]; ok {
		return f.rewriteEntry(e, key, prev)
	}
	if f.visiting[key] {
		return stored{}, types.NewEntryError(types.OpWrite, typeName, name, types.ErrLinkCycle, nil)
	}

	fileName := f.opts.FileName(name)
	path, err := f.m.Path(typeName, fileName)
	if err != nil {
		return stored{}, types.NewEntryError(types.OpWrite, typeName, name, types.ErrInvalidName, err)
	}
	exists, err := fileExists(path)
	if err != nil {
		return stored{}, types.NewEntryError(types.OpWrite, typeName, name, types.ErrIO, err)
	}

	if exists && !f.opts.Overwrite {
		switch f.opts.OnConflict {
		case types.ConflictKeep:
			data, err := os.ReadFile(path)
			if err != nil {
				return stored{}, types.NewEntryError(types.OpWrite, typeName, name, types.ErrIO, err)
			}
			st := stored{name: fileName, path: path, sum: checksum.Sum(data), data: data}
			f.written[key] = st
			f.writeInfo.Kept = append(f.writeInfo.Kept, path)
			f.m.logger.Debug("entry kept", "op", f.opID, "type", typeName, "name", fileName, "path", path)
			return st, nil
		case types.ConflictRename:
			fileName, path, err = f.m.freeName(typeName, fileName)
			if err != nil {
				return stored{}, types.NewEntryError(types.OpWrite, typeName, name, types.ErrIO, err)
			}
			exists = false
		default:
			return stored{}, types.NewEntryError(types.OpWrite, typeName, name, types.ErrWriteConflict, nil)
		}
	}

	data, err := f.encode(e, key)
	if err != nil {
		return stored{}, err
	}
	st, err := f.commit(key, fileName, path, data, exists)
	if err != nil {
		return stored{}, err
	}
	f.written[key] = st
	return st, nil
}

// rewriteEntry handles an entry already written earlier in this frame. Equal
// bytes reuse the earlier file; different bytes are a conflict with it.
func (f *frame) rewriteEntry(e types.Entry, key entryKey, prev stored) (stored, error) {
	data, err := f.encode(e, key)
	if err != nil {
		return stored{}, err
	}
	if bytes.Equal(data, prev.data) {
		return prev, nil
	}

	if f.opts.Overwrite {
		st, err := f.commit(key, prev.name, prev.path, data, true)
		if err != nil {
			return stored{}, err
		}
		f.written[key] = st
		return st, nil
	}
	switch f.opts.OnConflict {
	case types.ConflictKeep:
		f.m.logger.Debug("entry kept", "op", f.opID, "type", key.typeName, "name", prev.name, "path", prev.path)
		return prev, nil
	case types.ConflictRename:
		fileName, path, err := f.m.freeName(key.typeName, prev.name)
		if err != nil {
			return stored{}, types.NewEntryError(types.OpWrite, key.typeName, key.name, types.ErrIO, err)
		}
		return f.commit(key, fileName, path, data, false)
	default:
		return stored{}, types.NewEntryError(types.OpWrite, key.typeName, key.name, types.ErrWriteConflict,
			errors.New("written earlier in the same call with different content"))
	}
}

// encode renders e with its key marked as visiting, so components linking
// back to it are reported as a cycle.
func (f *frame) encode(e types.Entry, key entryKey) ([]byte, error) {
	if f.visiting[key] {
		return nil, types.NewEntryError(types.OpWrite, key.typeName, key.name, types.ErrLinkCycle, nil)
	}
	f.visiting[key] = true
	data, err := f.m.format.Encode(key.typeName, e, f.opts.Pretty)
	delete(f.visiting, key)
	if err != nil {
		return nil, entryError(types.OpEncode, key.typeName, key.name, types.ErrEncode, err)
	}
	return data, nil
}

// commit writes data to path and records it in the frame's WriteInfo.
func (f *frame) commit(key entryKey, fileName, path string, data []byte, exists bool) (stored, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return stored{}, types.NewEntryError(types.OpWrite, key.typeName, key.name, types.ErrIO, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return stored{}, types.NewEntryError(types.OpWrite, key.typeName, key.name, types.ErrIO, err)
	}

	st := stored{name: fileName, path: path, sum: checksum.Sum(data), data: data}
	if exists {
		f.writeInfo.Overwritten = append(f.writeInfo.Overwritten, path)
	} else {
		f.writeInfo.Created = append(f.writeInfo.Created, path)
	}
	f.m.logger.Debug("entry written",
		"op", f.opID, "type", key.typeName, "name", fileName, "path", path, "checksum", st.sum)
	return st, nil
}

// link writes e and returns the link that replaces it in its parent.
func (f *frame) link(e types.Entry) (types.LinkRef, error) {
	st, err := f.writeEntry(e)
	if err != nil {
		return types.LinkRef{}, err
	}
	ref := types.LinkRef{Name: st.name}
	if f.opts.EmitChecksum {
		sum := st.sum
		ref.Checksum = &sum
	}
	return ref, nil
}

// load reads typeName/name from disk and decodes it with into. missing is
// the error kind reported when the file does not exist.
func (f *frame) load(typeName, name string, missing error, into decodeFunc) (uint32, string, error) {
	path, err := f.m.Path(typeName, name)
	if err != nil {
		return 0, "", types.NewEntryError(types.OpRead, typeName, name, types.ErrInvalidName, err)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, "", types.NewEntryError(types.OpRead, typeName, name, missing, nil)
	}
	if err != nil {
		return 0, "", types.NewEntryError(types.OpRead, typeName, name, types.ErrIO, err)
	}
	if err := f.decode(typeName, name, data, into); err != nil {
		return 0, "", err
	}
	sum := checksum.Sum(data)
	f.m.logger.Debug("entry loaded",
		"op", f.opID, "type", typeName, "name", name, "path", path, "checksum", sum)
	return sum, path, nil
}

// loadLinked resolves ref to a file of typeName and records a mismatch when
// the link's checksum no longer matches the file.
func (f *frame) loadLinked(typeName string, ref types.LinkRef, into decodeFunc) (uint32, error) {
	sum, path, err := f.load(typeName, ref.Name, types.ErrLinkNotFound, into)
	if err != nil {
		return 0, err
	}
	if ref.Checksum != nil && *ref.Checksum != sum {
		f.readInfo.Mismatches = append(f.readInfo.Mismatches, types.ChecksumMismatch{
			Link: *ref.Checksum,
			File: sum,
			Path: path,
		})
		f.m.logger.Debug("checksum mismatch",
			"op", f.opID, "type", typeName, "name", ref.Name, "link", *ref.Checksum, "file", sum)
	}
	return sum, nil
}

// decode unwraps an envelope and hands its body to into. An empty want
// accepts whatever type the envelope names.
func (f *frame) decode(want, name string, data []byte, into decodeFunc) error {
	tag, body, err := f.m.format.Decode(data)
	if err != nil {
		return types.NewEntryError(types.OpDecode, want, name, types.ErrDecode, err)
	}
	if want == "" {
		want = tag
	} else if tag != want {
		return types.NewEntryError(types.OpDecode, want, name, types.ErrTypeMismatch,
			errors.New("stored as "+tag))
	}

	key := entryKey{want, name}
	if f.visiting[key] {
		return types.NewEntryError(types.OpRead, want, name, types.ErrLinkCycle, nil)
	}
	f.visiting[key] = true
	defer delete(f.visiting, key)

	if err := into(tag, body); err != nil {
		return entryError(types.OpDecode, want, name, types.ErrDecode, err)
	}
	return nil
}

// decodeFunc decodes an envelope body whose type name is tag.
type decodeFunc func(tag string, body func(target any) error) error

// decodeInto returns a decodeFunc that decodes the body into target.
func decodeInto(target any) decodeFunc {
	return func(_ string, body func(target any) error) error {
		return body(target)
	}
}

// entryError tags err with the entry it concerns unless a nested component
// already did, in which case the innermost entry is kept.
func entryError(op, typeName, name string, kind, err error) error {
	var ee *types.EntryError
	if errors.As(err, &ee) {
		return ee
	}
	return types.NewEntryError(op, typeName, name, kind, err)
}
