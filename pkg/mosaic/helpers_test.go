package mosaic

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mosaic/internal/format"
	"github.com/mesh-intelligence/mosaic/pkg/types"
)

type Material struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Weight int    `json:"weight" yaml:"weight"`
}

func (m Material) EntryName() string { return m.ID }

// paletteDecodes counts JSON decodes of Palette so tests can tell a cache hit
// from a reload.
var paletteDecodes atomic.Int64

type Palette struct {
	ID     string   `json:"id" yaml:"id"`
	Colors []string `json:"colors" yaml:"colors"`
}

func (p Palette) EntryName() string { return p.ID }

func (p *Palette) UnmarshalJSON(data []byte) error {
	type plain Palette
	paletteDecodes.Add(1)
	return json.Unmarshal(data, (*plain)(p))
}

type Garment struct {
	ID      string             `json:"id" yaml:"id"`
	Fabric  Link[Material]     `json:"fabric" yaml:"fabric"`
	Lining  OptLink[Material]  `json:"lining" yaml:"lining"`
	Palette Shared[Palette]    `json:"palette" yaml:"palette"`
	Trim    OptShared[Palette] `json:"trim" yaml:"trim"`
}

func (g Garment) EntryName() string { return g.ID }

type Outfit struct {
	ID  string        `json:"id" yaml:"id"`
	Top Link[Garment] `json:"top" yaml:"top"`
}

func (o Outfit) EntryName() string { return o.ID }

// Pair links two Materials that may share a name.
type Pair struct {
	ID    string         `json:"id" yaml:"id"`
	Left  Link[Material] `json:"left" yaml:"left"`
	Right Link[Material] `json:"right" yaml:"right"`
}

func (p Pair) EntryName() string { return p.ID }

// Swatch overrides its stored type name.
type Swatch struct {
	Code string `json:"code" yaml:"code"`
}

func (s Swatch) EntryName() string { return s.Code }
func (Swatch) EntryType() string   { return "swatch-v1" }

// Knot links to another Knot, so values can form cycles through pointers.
type Knot struct {
	ID   string          `json:"id" yaml:"id"`
	Next OptShared[Knot] `json:"next" yaml:"next"`
}

func (k Knot) EntryName() string { return k.ID }

// Gate is a shared-linked cycle member whose decode can be held at a
// rendezvous, so two goroutines can be made to load opposite halves of a
// cycle at the same time.
type Gate struct {
	ID   string          `json:"id"`
	Next OptShared[Gate] `json:"next"`
}

func (g Gate) EntryName() string { return g.ID }

var gateRendezvous atomic.Pointer[rendezvous]

func (g *Gate) UnmarshalJSON(data []byte) error {
	type plain Gate
	if r := gateRendezvous.Load(); r != nil {
		r.wait()
	}
	return json.Unmarshal(data, (*plain)(g))
}

// Gatehouse is a top-level entry sharing one Gate.
type Gatehouse struct {
	ID   string       `json:"id"`
	Gate Shared[Gate] `json:"gate"`
}

func (h Gatehouse) EntryName() string { return h.ID }

// rendezvous releases its callers once n of them have arrived. Later callers
// pass straight through.
type rendezvous struct {
	n       int32
	arrived atomic.Int32
	all     chan struct{}
}

func newRendezvous(n int32) *rendezvous {
	return &rendezvous{n: n, all: make(chan struct{})}
}

func (r *rendezvous) wait() {
	if r.arrived.Add(1) == r.n {
		close(r.all)
	}
	<-r.all
}

func cotton() Material { return Material{ID: "cotton", Name: "Cotton", Weight: 140} }
func linen() Material  { return Material{ID: "linen", Name: "Linen", Weight: 180} }

func warm() *Palette { return &Palette{ID: "warm", Colors: []string{"red", "amber"}} }

func shirt(id string, p *Palette) Garment {
	return Garment{
		ID:      id,
		Fabric:  NewLink(cotton()),
		Palette: NewShared(p),
	}
}

// keepOptions writes shared components once and links later writes to the
// stored file.
func keepOptions() types.WriteOptions {
	opts := types.DefaultWriteOptions()
	opts.OnConflict = types.ConflictKeep
	return opts
}

func overwriteOptions() types.WriteOptions {
	opts := types.DefaultWriteOptions()
	opts.Overwrite = true
	return opts
}

func openJSON(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(t.TempDir(), format.JSON{})
	require.NoError(t, err)
	return m
}

func allFormats() []types.Format {
	return []types.Format{format.JSON{}, format.YAML{}}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func writeFile(t *testing.T, m *Manager, typeName, name, content string) {
	t.Helper()
	path, err := m.Path(typeName, name)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// storedGarment is the on-disk JSON shape of a Garment written in link mode.
type storedGarment struct {
	Garment struct {
		ID      string        `json:"id"`
		Fabric  types.LinkRef `json:"fabric"`
		Lining  types.LinkRef `json:"lining"`
		Palette types.LinkRef `json:"palette"`
		Trim    types.LinkRef `json:"trim"`
	} `json:"Garment"`
}

func readStoredGarment(t *testing.T, m *Manager, name string) storedGarment {
	t.Helper()
	path, err := m.Path("Garment", name)
	require.NoError(t, err)
	var sg storedGarment
	require.NoError(t, json.Unmarshal([]byte(readFile(t, path)), &sg))
	return sg
}
