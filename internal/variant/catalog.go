package variant

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs.yaml
var builtinCatalogs []byte

// Names of the sets shipped with the built-in catalogs.
const (
	SetTrackTypes         = "track_types"
	SetFonts              = "fonts"
	SetKeyframeProperties = "keyframe_properties"
	SetMasks              = "masks"
	SetFilters            = "filters"
	SetTransitions        = "transitions"
	SetVideoAnimations    = "video_animations"
	SetTextAnimations     = "text_animations"
	SetVideoEffects       = "video_effects"
	SetAudioEffects       = "audio_effects"
)

// ErrUnknownSet is returned when a set name is not defined in the Library.
var ErrUnknownSet = errors.New("unknown variant set")

// Param describes one adjustable parameter of an effect-like member.
type Param struct {
	Name    string  `yaml:"name" json:"name"`
	Default float64 `yaml:"default" json:"default"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
}

// Member is one value of a closed catalog.
type Member struct {
	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	// Duration is the default length in microseconds for animation and
	// transition members; zero elsewhere.
	Duration int64   `yaml:"duration,omitempty" json:"duration,omitempty"`
	Params   []Param `yaml:"params,omitempty" json:"params,omitempty"`
}

// Catalog is a named, ordered set of members.
type Catalog struct {
	Name    string   `yaml:"name" json:"name"`
	Members []Member `yaml:"members" json:"members"`

	byName map[string]int
}

// Lookup returns the member with the exact given name.
func (c *Catalog) Lookup(name string) (Member, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Member{}, false
	}
	return c.Members[i], true
}

// Names returns the member names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.Members))
	for i, m := range c.Members {
		out[i] = m.Name
	}
	return out
}

// Set is an ordered list of catalogs searched together by Resolve.
type Set struct {
	Name     string
	Catalogs []*Catalog
}

// NewSet builds an ad-hoc set from catalogs, in priority order.
func NewSet(name string, catalogs ...*Catalog) Set {
	return Set{Name: name, Catalogs: catalogs}
}

// Library holds every loaded catalog and the named sets built from them.
// A Library is immutable once loaded and safe for concurrent use.
type Library struct {
	catalogs map[string]*Catalog
	order    []string
	sets     map[string]Set
}

type libraryFile struct {
	Catalogs []*Catalog          `yaml:"catalogs"`
	Sets     map[string][]string `yaml:"sets"`
}

// Builtin returns the library compiled into the binary.
func Builtin() *Library {
	lib, err := Load(bytes.NewReader(builtinCatalogs))
	if err != nil {
		panic(fmt.Sprintf("variant: built-in catalogs are invalid: %v", err))
	}
	return lib
}

// LoadFile reads a catalog library from a YAML file on disk.
func LoadFile(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML catalog library and validates it: catalog names and
// member names must be unique, and every set must reference known catalogs.
func Load(r io.Reader) (*Library, error) {
	var file libraryFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalogs: %w", err)
	}

	lib := &Library{
		catalogs: make(map[string]*Catalog, len(file.Catalogs)),
		sets:     make(map[string]Set, len(file.Sets)),
	}
	for _, c := range file.Catalogs {
		if c.Name == "" {
			return nil, errors.New("catalog with empty name")
		}
		if _, dup := lib.catalogs[c.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog %q", c.Name)
		}
		c.byName = make(map[string]int, len(c.Members))
		for i, m := range c.Members {
			if m.Name == "" {
				return nil, fmt.Errorf("catalog %q: member %d has empty name", c.Name, i)
			}
			if _, dup := c.byName[m.Name]; dup {
				return nil, fmt.Errorf("catalog %q: duplicate member %q", c.Name, m.Name)
			}
			c.byName[m.Name] = i
		}
		lib.catalogs[c.Name] = c
		lib.order = append(lib.order, c.Name)
	}

	for name, refs := range file.Sets {
		set := Set{Name: name}
		for _, ref := range refs {
			c, ok := lib.catalogs[ref]
			if !ok {
				return nil, fmt.Errorf("set %q references unknown catalog %q", name, ref)
			}
			set.Catalogs = append(set.Catalogs, c)
		}
		if len(set.Catalogs) == 0 {
			return nil, fmt.Errorf("set %q is empty", name)
		}
		lib.sets[name] = set
	}
	return lib, nil
}

// Catalog returns the catalog with the given name.
func (l *Library) Catalog(name string) (*Catalog, bool) {
	c, ok := l.catalogs[name]
	return c, ok
}

// Catalogs returns all catalogs in file order.
func (l *Library) Catalogs() []*Catalog {
	out := make([]*Catalog, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.catalogs[name])
	}
	return out
}

// Set returns the named set.
func (l *Library) Set(name string) (Set, error) {
	s, ok := l.sets[name]
	if !ok {
		return Set{}, fmt.Errorf("%w: %q", ErrUnknownSet, name)
	}
	return s, nil
}

// SetNames returns the defined set names, sorted.
func (l *Library) SetNames() []string {
	names := make([]string, 0, len(l.sets))
	for name := range l.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve resolves raw against the named set.
func (l *Library) Resolve(setName, raw, label string) (Variant, error) {
	s, err := l.Set(setName)
	if err != nil {
		return Variant{}, err
	}
	return Resolve(s, raw, label)
}
