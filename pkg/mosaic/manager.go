package mosaic

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/mesh-intelligence/mosaic/internal/checksum"
	"github.com/mesh-intelligence/mosaic/internal/format"
	"github.com/mesh-intelligence/mosaic/internal/paths"
	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// Manager reads and writes entries under one root directory in one format.
// A Manager is safe for concurrent use; each call carries its own resolution
// context and all calls share the Manager's Cache.
type Manager struct {
	root   string
	format types.Format
	cache  *Cache
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for debug records. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithCache makes the Manager resolve shared links through c instead of a
// cache of its own. Managers sharing a cache should share a root as well.
func WithCache(c *Cache) Option {
	return func(m *Manager) {
		if c != nil {
			m.cache = c
		}
	}
}

// Open returns a Manager for root, creating the directory when it does not
// exist. It fails with types.ErrNotDirectory when root is a file.
func Open(root string, f types.Format, opts ...Option) (*Manager, error) {
	if root == "" {
		return nil, types.ErrRootEmpty
	}
	if f == nil {
		return nil, fmt.Errorf("%w: nil format", types.ErrFormatUnknown)
	}
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating root %s: %w", types.ErrIO, root, err)
		}
	case err != nil:
		return nil, fmt.Errorf("%w: %w", types.ErrIO, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s", types.ErrNotDirectory, root)
	}
	return newManager(root, f, opts), nil
}

// OpenExisting is Open without the directory creation: a missing root fails
// with types.ErrNotFound.
func OpenExisting(root string, f types.Format, opts ...Option) (*Manager, error) {
	if root == "" {
		return nil, types.ErrRootEmpty
	}
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: root %s", types.ErrNotFound, root)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", types.ErrIO, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s", types.ErrNotDirectory, root)
	}
	return Open(root, f, opts...)
}

// OpenConfig validates cfg and opens its root with the format it names.
func OpenConfig(cfg types.Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, err := format.ByName(cfg.Format)
	if err != nil {
		return nil, err
	}
	return Open(cfg.Root, f, opts...)
}

func newManager(root string, f types.Format, opts []Option) *Manager {
	m := &Manager{
		root:   filepath.Clean(root),
		format: f,
		cache:  NewCache(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the store root.
func (m *Manager) Root() string { return m.root }

// Format returns the store format.
func (m *Manager) Format() types.Format { return m.format }

// Cache returns the cache shared links resolve through.
func (m *Manager) Cache() *Cache { return m.cache }

// Write stores entry and every component reachable through its link fields,
// and returns the path of the entry's file.
func (m *Manager) Write(entry types.Entry, opts types.WriteOptions) (string, error) {
	path, _, err := m.WriteVerbose(entry, opts)
	return path, err
}

// WriteVerbose is Write that also reports every file the write created,
// replaced or kept.
func (m *Manager) WriteVerbose(entry types.Entry, opts types.WriteOptions) (string, types.WriteInfo, error) {
	if isNil(entry) {
		return "", types.WriteInfo{}, types.ErrNilEntry
	}
	f, exit := m.enter(frameWrite, opts)
	defer exit()

	st, err := f.writeEntry(entry)
	return st.path, f.writeInfo, err
}

// ReadAny reads the entry typeName/name through the type registry. The
// returned value has the registered type T, not *T.
func (m *Manager) ReadAny(typeName, name string) (types.Entry, error) {
	dec, ok := registered(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownType, typeName)
	}
	f, exit := m.enter(frameRead, types.WriteOptions{})
	defer exit()

	var out types.Entry
	_, _, err := f.load(typeName, name, types.ErrNotFound, func(_ string, body func(any) error) error {
		v, err := dec(body)
		out = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeAny decodes an enveloped document held in memory, dispatching on its
// type name through the registry. Links inside it resolve against the root.
func (m *Manager) DecodeAny(data []byte) (types.Entry, error) {
	f, exit := m.enter(frameRead, types.WriteOptions{})
	defer exit()

	var out types.Entry
	err := f.decode("", "", data, func(tag string, body func(any) error) error {
		dec, ok := registered(tag)
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrUnknownType, tag)
		}
		v, err := dec(body)
		out = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Path returns the file path of typeName/name without touching the disk.
func (m *Manager) Path(typeName, name string) (string, error) {
	return paths.EntryPath(m.root, typeName, name, m.format.Ext())
}

// Exists reports whether typeName/name is stored. Invalid names are never
// stored.
func (m *Manager) Exists(typeName, name string) bool {
	path, err := m.Path(typeName, name)
	if err != nil {
		return false
	}
	ok, err := fileExists(path)
	return err == nil && ok
}

// Remove deletes the file of typeName/name. Links to it are left dangling.
func (m *Manager) Remove(typeName, name string) error {
	path, err := m.Path(typeName, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.NewEntryError(types.OpRemove, typeName, name, types.ErrNotFound, nil)
		}
		return types.NewEntryError(types.OpRemove, typeName, name, types.ErrIO, err)
	}
	m.logger.Debug("entry removed", "type", typeName, "name", name, "path", path)
	return nil
}

// RemoveAll deletes name from every type directory and returns how many
// files were removed.
func (m *Manager) RemoveAll(name string) (int, error) {
	if err := paths.ValidName(name); err != nil {
		return 0, err
	}
	typeNames, err := m.Types()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, typeName := range typeNames {
		err := m.Remove(typeName, name)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, types.ErrNotFound):
		default:
			return removed, err
		}
	}
	return removed, nil
}

// RemoveEmptyDirs deletes type directories that hold no entries and returns
// their names.
func (m *Manager) RemoveEmptyDirs() ([]string, error) {
	typeNames, err := m.Types()
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, typeName := range typeNames {
		dir := filepath.Join(m.root, typeName)
		ents, err := os.ReadDir(dir)
		if err != nil {
			return removed, fmt.Errorf("%w: %w", types.ErrIO, err)
		}
		if len(ents) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			return removed, fmt.Errorf("%w: %w", types.ErrIO, err)
		}
		removed = append(removed, typeName)
	}
	return removed, nil
}

// Checksum returns the checksum of the stored file of typeName/name.
func (m *Manager) Checksum(typeName, name string) (uint32, error) {
	path, err := m.Path(typeName, name)
	if err != nil {
		return 0, err
	}
	sum, ok, err := checksum.File(path)
	if err != nil {
		return 0, types.NewEntryError(types.OpRead, typeName, name, types.ErrIO, err)
	}
	if !ok {
		return 0, types.NewEntryError(types.OpRead, typeName, name, types.ErrNotFound, nil)
	}
	return sum, nil
}

// Types returns the names of the type directories under the root, sorted.
func (m *Manager) Types() ([]string, error) {
	ents, err := os.ReadDir(m.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	var names []string
	for _, ent := range ents {
		if ent.IsDir() && !strings.HasPrefix(ent.Name(), ".") {
			names = append(names, ent.Name())
		}
	}
	return names, nil
}

// List returns the names of the stored entries of typeName, sorted. A type
// with no directory has no entries.
func (m *Manager) List(typeName string) ([]string, error) {
	if err := paths.ValidName(typeName); err != nil {
		return nil, err
	}
	ents, err := os.ReadDir(filepath.Join(m.root, typeName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	suffix := ""
	if ext := m.format.Ext(); ext != "" {
		suffix = "." + ext
	}
	var names []string
	for _, ent := range ents {
		n := ent.Name()
		if ent.IsDir() || strings.HasPrefix(n, ".") || !strings.HasSuffix(n, suffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(n, suffix))
	}
	slices.Sort(names)
	return names, nil
}

// freeName returns the first <base>_<i> not yet stored under typeName.
func (m *Manager) freeName(typeName, base string) (string, string, error) {
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s_%d", base, i)
		path, err := m.Path(typeName, name)
		if err != nil {
			return "", "", err
		}
		exists, err := fileExists(path)
		if err != nil {
			return "", "", err
		}
		if !exists {
			return name, path, nil
		}
	}
}

func isNil(e types.Entry) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
