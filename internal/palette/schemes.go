package palette

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Palette families.
const (
	Sequential  = "sequential"
	Diverging   = "diverging"
	Qualitative = "qualitative"
)

// Scheme is a named set of anchor colors.
type Scheme struct {
	Name   string   `json:"name" yaml:"name"`
	Colors []string `json:"colors" yaml:"colors"`
}

// Family groups schemes suited to one kind of data.
type Family struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Schemes     []Scheme `json:"schemes" yaml:"schemes"`
}

// Registry holds the palette families available for styling.
type Registry struct {
	families map[string]*Family
}

// Default returns the built-in sequential, diverging and qualitative families.
func Default() *Registry {
	r := &Registry{families: make(map[string]*Family)}
	for _, f := range builtinFamilies() {
		f := f
		r.families[f.Name] = &f
	}
	return r
}

func builtinFamilies() []Family {
	return []Family{
		{
			Name:        Sequential,
			Description: "Best for ordered data (low to high values)",
			Schemes: []Scheme{
				{Name: "Reds", Colors: []string{"#fee5d9", "#fcae91", "#fb6a4a", "#de2d26", "#a50f15"}},
				{Name: "Greens", Colors: []string{"#edf8e9", "#bae4b3", "#74c476", "#31a354", "#006d2c"}},
				{Name: "Blues", Colors: []string{"#eff3ff", "#bdd7e7", "#6baed6", "#3182bd", "#08519c"}},
			},
		},
		{
			Name:        Diverging,
			Description: "Best for data with a meaningful center point",
			Schemes: []Scheme{
				{Name: "RdBu", Colors: []string{"#d73027", "#fc8d59", "#fee090", "#91bfdb", "#4575b4"}},
				{Name: "BrBG", Colors: []string{"#8c510a", "#f6e8c3", "#f5f5f5", "#c7eae5", "#01665e"}},
				{Name: "PRGn", Colors: []string{"#762a83", "#c2a5cf", "#f7f7f7", "#80cdc1", "#1b7837"}},
			},
		},
		{
			Name:        Qualitative,
			Description: "Best for categorical data",
			Schemes: []Scheme{
				{Name: "Set1", Colors: []string{"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00"}},
				{Name: "Set2", Colors: []string{"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3", "#a6d854"}},
				{Name: "Set3", Colors: []string{"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3"}},
			},
		},
	}
}

// Families returns all families sorted by name. The returned values are copies.
func (r *Registry) Families() []Family {
	out := make([]Family, 0, len(r.families))
	for _, f := range r.families {
		out = append(out, copyFamily(*f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Scheme returns the anchors of scheme index within family.
func (r *Registry) Scheme(family string, index int) (Scheme, bool) {
	f, ok := r.families[family]
	if !ok || index < 0 || index >= len(f.Schemes) {
		return Scheme{}, false
	}
	s := f.Schemes[index]
	return Scheme{Name: s.Name, Colors: append([]string(nil), s.Colors...)}, true
}

// Resolve returns the requested scheme, or the first sequential scheme when the
// family or index is unknown. The boolean reports whether the fallback was used.
func (r *Registry) Resolve(family string, index int) (Scheme, bool) {
	if s, ok := r.Scheme(family, index); ok {
		return s, false
	}
	s, _ := r.Scheme(Sequential, 0)
	return s, true
}

// Colors resolves a scheme and interpolates count colors from it.
func (r *Registry) Colors(family string, index, count int) ([]string, bool, error) {
	s, fellBack := r.Resolve(family, index)
	colors, err := Interpolate(s.Colors, count)
	if err != nil {
		return nil, fellBack, eris.Wrapf(err, "palette: %s/%s", family, s.Name)
	}
	return colors, fellBack, nil
}

// fileFormat is the on-disk layout of a palette file.
type fileFormat struct {
	Families []Family `yaml:"families"`
}

// LoadFile merges palette families from a YAML file into the registry. Schemes
// are appended to existing families; unknown families are created. Every
// anchor is validated before anything is merged.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "palette: read %s", path)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return eris.Wrapf(err, "palette: parse %s", path)
	}

	for _, f := range ff.Families {
		if f.Name == "" {
			return eris.Wrapf(ErrInvalidPalette, "palette: %s: family without name", path)
		}
		for _, s := range f.Schemes {
			if len(s.Colors) == 0 {
				return eris.Wrapf(ErrInvalidPalette, "palette: %s: scheme %q has no colors", path, s.Name)
			}
			for _, c := range s.Colors {
				if _, err := ParseHex(c); err != nil {
					return eris.Wrapf(err, "palette: %s: scheme %q", path, s.Name)
				}
			}
		}
	}

	for _, f := range ff.Families {
		existing, ok := r.families[f.Name]
		if !ok {
			nf := copyFamily(f)
			r.families[f.Name] = &nf
			continue
		}
		if f.Description != "" {
			existing.Description = f.Description
		}
		existing.Schemes = append(existing.Schemes, copyFamily(f).Schemes...)
	}
	return nil
}

func copyFamily(f Family) Family {
	schemes := make([]Scheme, len(f.Schemes))
	for i, s := range f.Schemes {
		schemes[i] = Scheme{Name: s.Name, Colors: append([]string(nil), s.Colors...)}
	}
	return Family{Name: f.Name, Description: f.Description, Schemes: schemes}
}
