// api/models/models.go
package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// CommandType represents the type of mutation applied to the inventory
type CommandType string

const (
	AddFilament      CommandType = "ADD_FILAMENT"
	UpdateFilament   CommandType = "UPDATE_FILAMENT"
	DeleteFilament   CommandType = "DELETE_FILAMENT"
	ReplaceFilaments CommandType = "REPLACE_FILAMENTS"
)

// Command represents a mutation to be applied to the filament collection
type Command struct {
	Type       CommandType    `json:"type"`
	Filament   *Filament      `json:"filament,omitempty"`
	FilamentID string         `json:"filament_id,omitempty"`
	Patch      *FilamentPatch `json:"patch,omitempty"`
	Filaments  []Filament     `json:"filaments,omitempty"`
}

// Marshal serializes a command to JSON
func (c *Command) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalCommand deserializes a command from JSON
func UnmarshalCommand(data []byte) (*Command, error) {
	var c Command
	err := json.Unmarshal(data, &c)
	return &c, err
}

// Apply returns the collection that results from applying the command to
// records. changed is false when an update or delete names no record.
// records itself is never modified.
func (c *Command) Apply(records []Filament) (out []Filament, changed bool, err error) {
	switch c.Type {
	case AddFilament:
		if c.Filament == nil {
			return records, false, fmt.Errorf("filament is nil")
		}
		out = make([]Filament, 0, len(records)+1)
		out = append(out, c.Filament.Clone())
		return append(out, records...), true, nil

	case UpdateFilament:
		if c.Patch == nil {
			return records, false, fmt.Errorf("patch is nil")
		}
		for i := range records {
			if records[i].ID == c.FilamentID {
				out = append([]Filament(nil), records...)
				out[i] = c.Patch.Apply(records[i])
				return out, true, nil
			}
		}
		return records, false, nil

	case DeleteFilament:
		for i := range records {
			if records[i].ID == c.FilamentID {
				return append(records[:i:i], records[i+1:]...), true, nil
			}
		}
		return records, false, nil

	case ReplaceFilaments:
		out = make([]Filament, len(c.Filaments))
		for i, f := range c.Filaments {
			out[i] = f.Clone()
		}
		return out, true, nil

	default:
		return records, false, fmt.Errorf("unknown command type: %s", c.Type)
	}
}

// FilamentTypes lists the supported material types in display order
var FilamentTypes = []string{"PLA", "PLA+", "PETG", "ABS", "ASA", "TPU", "Nylon", "PC"}

// IsValidFilamentType checks if a filament type is valid
func IsValidFilamentType(filamentType string) bool {
	for _, vt := range FilamentTypes {
		if strings.EqualFold(filamentType, vt) {
			return true
		}
	}
	return false
}

// CanonicalFilamentType returns the display spelling of a known type, or the
// input unchanged when the type is unknown
func CanonicalFilamentType(filamentType string) string {
	for _, vt := range FilamentTypes {
		if strings.EqualFold(filamentType, vt) {
			return vt
		}
	}
	return filamentType
}

// ValidationError reports an input field that failed validation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	colorHexPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	countryPattern  = regexp.MustCompile(`^[A-Za-z]{2}$`)
)

// Normalize applies the form defaults used when a record is entered by
// hand. It never runs on imported or programmatic data. An explicit zero
// remaining weight is kept; callers fill in the total when the field was
// not given at all.
func (f *Filament) Normalize() {
	f.Brand = strings.TrimSpace(f.Brand)
	f.ColorName = strings.TrimSpace(f.ColorName)
	f.Type = CanonicalFilamentType(strings.TrimSpace(f.Type))
	f.CountryOfOrigin = strings.ToUpper(strings.TrimSpace(f.CountryOfOrigin))

	if f.Diameter == 0 {
		f.Diameter = DefaultDiameter
	}
	ClampRemaining(f)
	f.Tags = NormalizeTags(f.Tags)
}

// Normalize applies the form's spelling rules to the fields being changed
func (p *FilamentPatch) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(p.Brand)
	trim(p.ColorName)
	if p.Type != nil {
		*p.Type = CanonicalFilamentType(strings.TrimSpace(*p.Type))
	}
	if p.CountryOfOrigin != nil {
		*p.CountryOfOrigin = strings.ToUpper(strings.TrimSpace(*p.CountryOfOrigin))
	}
	if p.Tags != nil {
		tags := NormalizeTags(*p.Tags)
		p.Tags = &tags
	}
}

// ClampRemaining caps the remaining weight at the total weight
func ClampRemaining(f *Filament) {
	if f.WeightRemaining > f.WeightTotal {
		f.WeightRemaining = f.WeightTotal
	}
}

// NormalizeTags trims tags and drops empty and duplicate entries
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Validate checks the fields the entry form requires
func (f *Filament) Validate() error {
	if f.Brand == "" {
		return &ValidationError{Field: "brand", Reason: "is required"}
	}
	if !IsValidFilamentType(f.Type) {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("must be one of %s", strings.Join(FilamentTypes, ", "))}
	}
	if f.ColorName == "" {
		return &ValidationError{Field: "colorName", Reason: "is required"}
	}
	if !colorHexPattern.MatchString(f.ColorHex) {
		return &ValidationError{Field: "colorHex", Reason: "must look like #RRGGBB"}
	}
	if f.WeightTotal <= 0 {
		return &ValidationError{Field: "weightTotal", Reason: "must be greater than 0"}
	}
	if f.WeightRemaining < 0 {
		return &ValidationError{Field: "weightRemaining", Reason: "must not be negative"}
	}
	if f.Diameter <= 0 {
		return &ValidationError{Field: "diameter", Reason: "must be greater than 0"}
	}
	if f.CountryOfOrigin != "" && !countryPattern.MatchString(f.CountryOfOrigin) {
		return &ValidationError{Field: "countryOfOrigin", Reason: "must be a two-letter code"}
	}
	return nil
}

// Facet names one filterable dimension
type Facet string

const (
	FacetBrands Facet = "brands"
	FacetTypes  Facet = "types"
	FacetColors Facet = "colors"
)

// ParseFacet accepts both the plural facet names and their singular forms
func ParseFacet(s string) (Facet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "brands", "brand":
		return FacetBrands, nil
	case "types", "type":
		return FacetTypes, nil
	case "colors", "color":
		return FacetColors, nil
	default:
		return "", fmt.Errorf("unknown facet %q", s)
	}
}

// Filters holds the selected values per facet. An empty facet does not
// restrict the result.
type Filters struct {
	Brands []string `json:"brands"`
	Types  []string `json:"types"`
	Colors []string `json:"colors"`
}

// Facets lists the distinct values available for each facet
type Facets struct {
	Brands []string `json:"brands"`
	Types  []string `json:"types"`
	Colors []string `json:"colors"`
}

// Stats are aggregates derived from the collection
type Stats struct {
	TotalWeight float64 `json:"totalWeight"`
	TotalRolls  int     `json:"totalRolls"`
}

// Theme is the display theme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme named by s, defaulting to dark
func ParseTheme(s string) Theme {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s)
	default:
		return ThemeDark
	}
}

// IsValidTheme checks if s names a known theme
func IsValidTheme(s string) bool {
	return s == string(ThemeLight) || s == string(ThemeDark)
}

// Toggle returns the opposite theme
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
