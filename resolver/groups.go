package resolver

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/wikidata"
)

// Group is a semantic bucket of properties whose free text names the same
// kind of thing, together with the category items a candidate must be an
// instance of.
type Group struct {
	Name       string
	Properties []int
	Hints      []int64
}

// GroupTable maps properties to groups and groups to hint items.
type GroupTable struct {
	groups     map[string]Group
	byProperty map[int]string
}

// DefaultGroups returns the built-in table.
func DefaultGroups() *GroupTable {
	t, err := NewGroupTable([]Group{
		// city, capital, town
		{Name: "place", Properties: []int{19, 20, 551, 937}, Hints: []int64{515, 5119, 3957}},
		// profession, occupation
		{Name: "occupation", Properties: []int{106}, Hints: []int64{28640, 12737077}},
		// country, sovereign state
		{Name: "country", Properties: []int{27}, Hints: []int64{6256, 3624078}},
		// material
		{Name: "material", Properties: []int{186}, Hints: []int64{214609}},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// NewGroupTable builds a table. A property may belong to one group only.
func NewGroupTable(groups []Group) (*GroupTable, error) {
	t := &GroupTable{groups: make(map[string]Group), byProperty: make(map[int]string)}
	for _, g := range groups {
		if err := t.put(g); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *GroupTable) put(g Group) error {
	if g.Name == "" {
		return errors.NewInvalidRequestError("group without a name")
	}
	if old, ok := t.groups[g.Name]; ok {
		for _, p := range old.Properties {
			delete(t.byProperty, p)
		}
	}
	for _, p := range g.Properties {
		if other, ok := t.byProperty[p]; ok && other != g.Name {
			return errors.NewInvalidRequestError("property P%d is in groups %q and %q", p, other, g.Name)
		}
		t.byProperty[p] = g.Name
	}
	t.groups[g.Name] = Group{
		Name:       g.Name,
		Properties: append([]int(nil), g.Properties...),
		Hints:      append([]int64(nil), g.Hints...),
	}
	return nil
}

// Group returns the group of property.
func (t *GroupTable) Group(property int) (string, bool) {
	g, ok := t.byProperty[property]
	return g, ok
}

// Hints returns the hint items of a group.
func (t *GroupTable) Hints(group string) []int64 {
	return append([]int64(nil), t.groups[group].Hints...)
}

// Properties returns the properties of a group, sorted.
func (t *GroupTable) Properties(group string) []int {
	props := append([]int(nil), t.groups[group].Properties...)
	sort.Ints(props)
	return props
}

// Names returns the group names, sorted.
func (t *GroupTable) Names() []string {
	names := make([]string, 0, len(t.groups))
	for name := range t.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type groupFile struct {
	Groups []struct {
		Name       string   `yaml:"name"`
		Properties []string `yaml:"properties"`
		Hints      []string `yaml:"hints"`
	} `yaml:"groups"`
}

// LoadGroups reads a YAML group file on top of the defaults. A group in the
// file replaces the default group of the same name.
//
//	groups:
//	  - name: place
//	    properties: [P19, P20]
//	    hints: [Q515, Q486972]
func LoadGroups(path string) (*GroupTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open group file %s", path)
	}
	defer f.Close()

	var file groupFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse group file %s", path)
	}

	t := DefaultGroups()
	for _, raw := range file.Groups {
		g := Group{Name: raw.Name}
		for _, p := range raw.Properties {
			prop, err := entry.NormalizeProperty(p)
			if err != nil {
				return nil, errors.Wrapf(err, "group %q", raw.Name)
			}
			g.Properties = append(g.Properties, prop)
		}
		for _, h := range raw.Hints {
			item, err := entry.ParseItemValue(h)
			if err != nil {
				return nil, errors.Wrapf(err, "group %q", raw.Name)
			}
			if item.Type != wikidata.EntityItem {
				return nil, errors.NewMalformedReferenceError("hint %q of group %q is not an item", h, raw.Name)
			}
			g.Hints = append(g.Hints, item.ID)
		}
		if err := t.put(g); err != nil {
			return nil, errors.Wrapf(err, "group file %s", path)
		}
	}
	return t, nil
}
