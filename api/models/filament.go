// api/models/filament.go
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DefaultDiameter is the filament diameter in mm used when none is given
const DefaultDiameter = 1.75

// Grams is a weight in grams. Decoding is lenient: numeric strings are
// parsed and any other non-numeric value decodes to 0.
type Grams float64

// UnmarshalJSON implements json.Unmarshaler
func (g *Grams) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*g = 0
		return nil
	}

	switch v := raw.(type) {
	case float64:
		*g = Grams(v)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			*g = 0
			return nil
		}
		*g = Grams(n)
	default:
		*g = 0
	}
	return nil
}

// Filament represents one physical spool in the inventory
type Filament struct {
	ID              string     `json:"id"`
	Brand           string     `json:"brand"`
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type"` // PLA, PLA+, PETG, ABS, ASA, TPU, Nylon, PC
	ColorName       string     `json:"colorName"`
	ColorHex        string     `json:"colorHex"`
	WeightTotal     Grams      `json:"weightTotal"`
	WeightRemaining Grams      `json:"weightRemaining"`
	Diameter        float64    `json:"diameter"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       *Timestamp `json:"createdAt,omitempty"`

	// Material properties
	Density         *float64 `json:"density,omitempty"`
	MaterialID      string   `json:"materialId,omitempty"`
	CountryOfOrigin string   `json:"countryOfOrigin,omitempty"`
	Tags            []string `json:"tags,omitempty"`

	// Temperature settings
	NozzleTemp string   `json:"nozzleTemp,omitempty"`
	BedTemp    *float64 `json:"bedTemp,omitempty"`
	DryingTemp *float64 `json:"dryingTemp,omitempty"`
	DryingTime *float64 `json:"dryingTime,omitempty"`

	ManufacturerURL string   `json:"manufacturerUrl,omitempty"`
	SpoolWeight     *float64 `json:"spoolWeight,omitempty"`
}

// StockLevel buckets the remaining percentage of a spool
type StockLevel string

const (
	StockLow    StockLevel = "low"
	StockMedium StockLevel = "medium"
	StockHigh   StockLevel = "high"
)

// DisplayName returns the name, or brand and color when no name is set
func (f Filament) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return strings.TrimSpace(f.Brand + " " + f.ColorName)
}

// PercentRemaining returns the remaining weight as a percentage in [0, 100]
func (f Filament) PercentRemaining() float64 {
	if f.WeightTotal <= 0 {
		return 0
	}
	pct := float64(f.WeightRemaining) / float64(f.WeightTotal) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// StockLevel classifies the spool by how much is left
func (f Filament) StockLevel() StockLevel {
	pct := f.PercentRemaining()
	switch {
	case pct < 20:
		return StockLow
	case pct < 50:
		return StockMedium
	default:
		return StockHigh
	}
}

// NetFilament returns the remaining weight minus the empty spool weight
func (f Filament) NetFilament() float64 {
	net := float64(f.WeightRemaining)
	if f.SpoolWeight != nil {
		net -= *f.SpoolWeight
	}
	return net
}

// NozzleRange parses the nozzle temperature, which is either a single value
// like "215" or a range like "200-220"
func (f Filament) NozzleRange() (low, high float64, ok bool) {
	s := strings.TrimSpace(f.NozzleTemp)
	if s == "" {
		return 0, 0, false
	}

	first, second, isRange := strings.Cut(s, "-")
	low, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
	if err != nil {
		return 0, 0, false
	}
	if !isRange {
		return low, low, true
	}

	high, err = strconv.ParseFloat(strings.TrimSpace(second), 64)
	if err != nil {
		return 0, 0, false
	}
	if high < low {
		low, high = high, low
	}
	return low, high, true
}

// FilamentPatch carries the fields of a partial update. Nil fields are left
// untouched. ID and CreatedAt are immutable and therefore absent.
type FilamentPatch struct {
	Brand           *string   `json:"brand,omitempty"`
	Name            *string   `json:"name,omitempty"`
	Type            *string   `json:"type,omitempty"`
	ColorName       *string   `json:"colorName,omitempty"`
	ColorHex        *string   `json:"colorHex,omitempty"`
	WeightTotal     *Grams    `json:"weightTotal,omitempty"`
	WeightRemaining *Grams    `json:"weightRemaining,omitempty"`
	Diameter        *float64  `json:"diameter,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	Density         *float64  `json:"density,omitempty"`
	MaterialID      *string   `json:"materialId,omitempty"`
	CountryOfOrigin *string   `json:"countryOfOrigin,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	NozzleTemp      *string   `json:"nozzleTemp,omitempty"`
	BedTemp         *float64  `json:"bedTemp,omitempty"`
	DryingTemp      *float64  `json:"dryingTemp,omitempty"`
	DryingTime      *float64  `json:"dryingTime,omitempty"`
	ManufacturerURL *string   `json:"manufacturerUrl,omitempty"`
	SpoolWeight     *float64  `json:"spoolWeight,omitempty"`
}

// Apply merges the patch on top of f and returns the result
func (p FilamentPatch) Apply(f Filament) Filament {
	setString(&f.Brand, p.Brand)
	setString(&f.Name, p.Name)
	setString(&f.Type, p.Type)
	setString(&f.ColorName, p.ColorName)
	setString(&f.ColorHex, p.ColorHex)
	setString(&f.Notes, p.Notes)
	setString(&f.MaterialID, p.MaterialID)
	setString(&f.CountryOfOrigin, p.CountryOfOrigin)
	setString(&f.NozzleTemp, p.NozzleTemp)
	setString(&f.ManufacturerURL, p.ManufacturerURL)

	if p.WeightTotal != nil {
		f.WeightTotal = *p.WeightTotal
	}
	if p.WeightRemaining != nil {
		f.WeightRemaining = *p.WeightRemaining
	}
	if p.Diameter != nil {
		f.Diameter = *p.Diameter
	}
	if p.Tags != nil {
		f.Tags = append([]string(nil), (*p.Tags)...)
	}

	setFloat(&f.Density, p.Density)
	setFloat(&f.BedTemp, p.BedTemp)
	setFloat(&f.DryingTemp, p.DryingTemp)
	setFloat(&f.DryingTime, p.DryingTime)
	setFloat(&f.SpoolWeight, p.SpoolWeight)
	return f
}

// Empty reports whether the patch changes nothing
func (p FilamentPatch) Empty() bool {
	return p == FilamentPatch{}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Clone returns a copy of f that shares no mutable state with it
func (f Filament) Clone() Filament {
	out := f
	if f.Tags != nil {
		out.Tags = append([]string(nil), f.Tags...)
	}
	out.Density = cloneFloat(f.Density)
	out.BedTemp = cloneFloat(f.BedTemp)
	out.DryingTemp = cloneFloat(f.DryingTemp)
	out.DryingTime = cloneFloat(f.DryingTime)
	out.SpoolWeight = cloneFloat(f.SpoolWeight)
	if f.CreatedAt != nil {
		ts := *f.CreatedAt
		out.CreatedAt = &ts
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
