// Package filter derives the visible subset of the inventory from the
// selected facet values. Every function is pure: inputs are never modified.
package filter

import (
	"sort"

	"github.com/devadigapratham/spoolkeeper/api/models"
)

// AvailableFacets returns the distinct brands, types and non-empty color
// names in records, each sorted
func AvailableFacets(records []models.Filament) models.Facets {
	brands := make(map[string]struct{})
	types := make(map[string]struct{})
	colors := make(map[string]struct{})

	for _, f := range records {
		brands[f.Brand] = struct{}{}
		types[f.Type] = struct{}{}
		if f.ColorName != "" {
			colors[f.ColorName] = struct{}{}
		}
	}

	return models.Facets{
		Brands: sortedKeys(brands),
		Types:  sortedKeys(types),
		Colors: sortedKeys(colors),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply returns the records matching every restricting facet, in input order
func Apply(records []models.Filament, filters models.Filters) []models.Filament {
	brands := toSet(filters.Brands)
	types := toSet(filters.Types)
	colors := toSet(filters.Colors)

	out := make([]models.Filament, 0, len(records))
	for _, f := range records {
		if matches(brands, f.Brand) && matches(types, f.Type) && matches(colors, f.ColorName) {
			out = append(out, f)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// an empty selection does not restrict
func matches(set map[string]struct{}, value string) bool {
	if len(set) == 0 {
		return true
	}
	_, ok := set[value]
	return ok
}

// Toggle adds value to the facet's selection if absent and removes it if
// present. The other facets are copied unchanged.
func Toggle(filters models.Filters, facet models.Facet, value string) models.Filters {
	out := models.Filters{
		Brands: clone(filters.Brands),
		Types:  clone(filters.Types),
		Colors: clone(filters.Colors),
	}

	switch facet {
	case models.FacetBrands:
		out.Brands = toggle(out.Brands, value)
	case models.FacetTypes:
		out.Types = toggle(out.Types, value)
	case models.FacetColors:
		out.Colors = toggle(out.Colors, value)
	}
	return out
}

func toggle(values []string, value string) []string {
	for i, v := range values {
		if v == value {
			return append(values[:i], values[i+1:]...)
		}
	}
	return append(values, value)
}

func clone(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// Clear returns filters with no facet restricted
func Clear() models.Filters {
	return models.Filters{
		Brands: []string{},
		Types:  []string{},
		Colors: []string{},
	}
}

// Active reports whether any facet restricts the result
func Active(filters models.Filters) bool {
	return len(filters.Brands) > 0 || len(filters.Types) > 0 || len(filters.Colors) > 0
}
