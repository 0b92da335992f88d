package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/devadigapratham/spoolkeeper/api/models"
	"github.com/devadigapratham/spoolkeeper/filter"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

// filamentFlags are the form fields shared by add and update
type filamentFlags struct {
	brand, name, typ, colorName, colorHex string
	total, remaining, diameter             float64
	notes, materialID, country, nozzle     string
	url                                    string
	tags                                   []string
	density, bedTemp, dryingTemp           float64
	dryingTime, spoolWeight                float64
}

func (f *filamentFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.brand, "brand", "", "Brand")
	fs.StringVar(&f.name, "name", "", "Display name (default brand and color)")
	fs.StringVar(&f.typ, "type", "", "Material type: "+strings.Join(models.FilamentTypes, ", "))
	fs.StringVar(&f.colorName, "color", "", "Color name")
	fs.StringVar(&f.colorHex, "hex", "", "Color as #RRGGBB")
	fs.Float64Var(&f.total, "total", 1000, "Total weight in grams")
	fs.Float64Var(&f.remaining, "remaining", 0, "Remaining weight in grams (default total)")
	fs.Float64Var(&f.diameter, "diameter", models.DefaultDiameter, "Diameter in mm")
	fs.StringVar(&f.notes, "notes", "", "Notes")
	fs.StringVar(&f.materialID, "material-id", "", "EAN/UPC barcode")
	fs.StringVar(&f.country, "country", "", "Country of origin (two-letter code)")
	fs.StringSliceVar(&f.tags, "tag", nil, "Material tag (repeatable)")
	fs.StringVar(&f.nozzle, "nozzle-temp", "", "Nozzle temperature, e.g. 200-220")
	fs.Float64Var(&f.bedTemp, "bed-temp", 0, "Bed temperature in °C")
	fs.Float64Var(&f.dryingTemp, "drying-temp", 0, "Drying temperature in °C")
	fs.Float64Var(&f.dryingTime, "drying-time", 0, "Drying time in hours")
	fs.Float64Var(&f.density, "density", 0, "Density in g/cm³")
	fs.StringVar(&f.url, "url", "", "Manufacturer product page")
	fs.Float64Var(&f.spoolWeight, "spool-weight", 0, "Empty spool weight in grams")
}

// optional numbers are only set when their flag was given
func optional(fs *pflag.FlagSet, name string, v float64) *float64 {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}

func (f *filamentFlags) filament(fs *pflag.FlagSet) models.Filament {
	return models.Filament{
		Brand:           f.brand,
		Name:            f.name,
		Type:            f.typ,
		ColorName:       f.colorName,
		ColorHex:        f.colorHex,
		WeightTotal:     models.Grams(f.total),
		WeightRemaining: models.Grams(f.remaining),
		Diameter:        f.diameter,
		Notes:           f.notes,
		MaterialID:      f.materialID,
		CountryOfOrigin: f.country,
		Tags:            f.tags,
		NozzleTemp:      f.nozzle,
		ManufacturerURL: f.url,
		Density:         optional(fs, "density", f.density),
		BedTemp:         optional(fs, "bed-temp", f.bedTemp),
		DryingTemp:      optional(fs, "drying-temp", f.dryingTemp),
		DryingTime:      optional(fs, "drying-time", f.dryingTime),
		SpoolWeight:     optional(fs, "spool-weight", f.spoolWeight),
	}
}

func (f *filamentFlags) patch(fs *pflag.FlagSet) models.FilamentPatch {
	str := func(name, v string) *string {
		if !fs.Changed(name) {
			return nil
		}
		return &v
	}
	grams := func(name string, v float64) *models.Grams {
		if !fs.Changed(name) {
			return nil
		}
		g := models.Grams(v)
		return &g
	}

	p := models.FilamentPatch{
		Brand:           str("brand", f.brand),
		Name:            str("name", f.name),
		Type:            str("type", f.typ),
		ColorName:       str("color", f.colorName),
		ColorHex:        str("hex", f.colorHex),
		WeightTotal:     grams("total", f.total),
		WeightRemaining: grams("remaining", f.remaining),
		Diameter:        optional(fs, "diameter", f.diameter),
		Notes:           str("notes", f.notes),
		MaterialID:      str("material-id", f.materialID),
		CountryOfOrigin: str("country", f.country),
		NozzleTemp:      str("nozzle-temp", f.nozzle),
		ManufacturerURL: str("url", f.url),
		Density:         optional(fs, "density", f.density),
		BedTemp:         optional(fs, "bed-temp", f.bedTemp),
		DryingTemp:      optional(fs, "drying-temp", f.dryingTemp),
		DryingTime:      optional(fs, "drying-time", f.dryingTime),
		SpoolWeight:     optional(fs, "spool-weight", f.spoolWeight),
	}
	if fs.Changed("tag") {
		tags := f.tags
		p.Tags = &tags
	}
	p.Normalize()
	return p
}

func newAddCmd(open opener) *cobra.Command {
	var ff filamentFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a spool to the inventory",
		Example: `  spoolkeeper add --brand Prusament --type PLA --color "Galaxy Black" --hex "#1a1a1a"
  spoolkeeper add --brand Elegoo --type PETG --color White --hex "#ffffff" --remaining 420 --tag translucent`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := ff.filament(cmd.Flags())
			if !cmd.Flags().Changed("remaining") {
				f.WeightRemaining = f.WeightTotal
			}
			f.Normalize()
			if err := f.Validate(); err != nil {
				return err
			}

			return withApp(open, func(a *app) error {
				created, err := a.store.Add(f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", bold(created.DisplayName()), created.ID)
				return nil
			})
		},
	}
	ff.register(cmd.Flags())
	return cmd
}

func newListCmd(open opener) *cobra.Command {
	var filters models.Filters

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List spools, optionally filtered by brand, type and color",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app) error {
				all := a.store.All()
				visible := filter.Apply(all, filters)
				printTable(cmd.OutOrStdout(), visible)

				if filter.Active(filters) {
					fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d spools match\n", len(visible), len(all))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&filters.Brands, "brand", nil, "Only these brands (repeatable)")
	cmd.Flags().StringSliceVar(&filters.Types, "type", nil, "Only these material types (repeatable)")
	cmd.Flags().StringSliceVar(&filters.Colors, "color", nil, "Only these colors (repeatable)")
	return cmd
}

func printTable(out io.Writer, records []models.Filament) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No spools.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCOLOR\tREMAINING\t%")
	for _, f := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0fg / %.0fg\t%s\n",
			shortID(f.ID), f.DisplayName(), f.Type, f.ColorName,
			float64(f.WeightRemaining), float64(f.WeightTotal), stockPercent(f))
	}
	tw.Flush()
}

func stockPercent(f models.Filament) string {
	pct := fmt.Sprintf("%.0f%%", f.PercentRemaining())
	switch f.StockLevel() {
	case models.StockLow:
		return red(pct)
	case models.StockMedium:
		return yellow(pct)
	default:
		return green(pct)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveID accepts a full id or an unambiguous prefix such as the one
// printed by list
func resolveID(a *app, ref string) (string, error) {
	if _, ok := a.store.Get(ref); ok {
		return ref, nil
	}

	var matches []string
	for _, f := range a.store.All() {
		if strings.HasPrefix(f.ID, ref) {
			matches = append(matches, f.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no spool with id %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d spools)", ref, len(matches))
	}
}

func newShowCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every detail of one spool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app) error {
				id, err := resolveID(a, args[0])
				if err != nil {
					return err
				}
				f, _ := a.store.Get(id)
				printDetail(cmd.OutOrStdout(), f)
				return nil
			})
		},
	}
}

func printDetail(out io.Writer, f models.Filament) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s\t%s\n", gray(label), value)
		}
	}
	num := func(v *float64, unit string) string {
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%g%s", *v, unit)
	}

	fmt.Fprintln(out, bold(f.DisplayName()))
	row("ID", f.ID)
	row("Brand", f.Brand)
	row("Type", f.Type)
	row("Color", strings.TrimSpace(f.ColorName+" "+f.ColorHex))
	row("Remaining", fmt.Sprintf("%gg / %gg (%s)", float64(f.WeightRemaining), float64(f.WeightTotal), stockPercent(f)))
	row("Diameter", fmt.Sprintf("%gmm", f.Diameter))
	if f.SpoolWeight != nil {
		row("Spool weight", num(f.SpoolWeight, "g"))
		row("Net filament", fmt.Sprintf("%gg", f.NetFilament()))
	}
	if low, high, ok := f.NozzleRange(); ok {
		if low == high {
			row("Nozzle", fmt.Sprintf("%g°C", low))
		} else {
			row("Nozzle", fmt.Sprintf("%g-%g°C", low, high))
		}
	} else {
		row("Nozzle", f.NozzleTemp)
	}
	row("Bed", num(f.BedTemp, "°C"))
	row("Drying", strings.TrimSpace(num(f.DryingTemp, "°C")+" "+num(f.DryingTime, "h")))
	row("Density", num(f.Density, "g/cm³"))
	row("Material ID", f.MaterialID)
	row("Origin", f.CountryOfOrigin)
	row("Tags", strings.Join(f.Tags, ", "))
	row("Website", f.ManufacturerURL)
	row("Notes", f.Notes)
	if added, ok := f.CreatedAt.Time(); ok {
		row("Added", added.Local().Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func newUpdateCmd(open opener) *cobra.Command {
	var ff filamentFlags

	cmd := &cobra.Command{
		Use:     "update <id>",
		Aliases: []string{"edit"},
		Short:   "Change fields of a spool; only the flags given are updated",
		Example: `  spoolkeeper update 3f2a --remaining 320`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := ff.patch(cmd.Flags())
			if patch.Empty() {
				return fmt.Errorf("nothing to update")
			}

			return withApp(open, func(a *app) error {
				id, err := resolveID(a, args[0])
				if err != nil {
					return err
				}
				current, _ := a.store.Get(id)

				merged := patch.Apply(current)
				if err := merged.Validate(); err != nil {
					return err
				}
				// the edit form never lets remaining exceed total
				if patch.WeightRemaining != nil || patch.WeightTotal != nil {
					models.ClampRemaining(&merged)
					patch.WeightRemaining = &merged.WeightRemaining
				}

				updated, _, err := a.store.Update(id, patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", bold(updated.DisplayName()))
				return nil
			})
		},
	}
	ff.register(cmd.Flags())
	return cmd
}

func newDeleteCmd(open opener) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a spool",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app) error {
				id, err := resolveID(a, args[0])
				if err != nil {
					return err
				}
				f, _ := a.store.Get(id)

				question := fmt.Sprintf("Are you sure you want to delete %s? This action cannot be undone.", f.DisplayName())
				if !yes && !confirm(cmd, question) {
					fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
					return nil
				}

				if _, err := a.store.Delete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", f.DisplayName())
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
