package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/devadigapratham/spoolkeeper/api/models"
	"github.com/devadigapratham/spoolkeeper/filter"
	"github.com/devadigapratham/spoolkeeper/transfer"
)

func newStatsCmd(open opener) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show total rolls and remaining weight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app) error {
				stats := a.store.Stats()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), stats)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", bold("Total rolls:"), stats.TotalRolls)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %.1f kg\n", bold("Total weight:"), stats.TotalWeight/1000)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newFacetsCmd(open opener) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "facets [brands|types|colors]",
		Short: "List the distinct brands, types and colors in the inventory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var only models.Facet
			if len(args) == 1 {
				facet, err := models.ParseFacet(args[0])
				if err != nil {
					return err
				}
				only = facet
			}

			return withApp(open, func(a *app) error {
				facets := filter.AvailableFacets(a.store.All())
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), facets)
				}

				out := cmd.OutOrStdout()
				section := func(facet models.Facet, title string, values []string) {
					if only != "" && only != facet {
						return
					}
					fmt.Fprintln(out, bold(title))
					if len(values) == 0 {
						fmt.Fprintln(out, gray("  (none)"))
					}
					for _, value := range values {
						fmt.Fprintf(out, "  %s\n", value)
					}
				}
				section(models.FacetBrands, "Brands", facets.Brands)
				section(models.FacetTypes, "Types", facets.Types)
				section(models.FacetColors, "Colors", facets.Colors)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newExportCmd(open opener) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole inventory to a JSON file",
		Long: `Write the whole inventory to a JSON file. The default file name is
filament-inventory-<date>.json in the current directory; use --out - to
write to standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app) error {
				records := a.store.All()

				if out == "-" {
					return transfer.Export(cmd.OutOrStdout(), records)
				}
				if out == "" {
					out = transfer.Filename(time.Now())
				}

				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create export file: %v", err)
				}
				w := bufio.NewWriter(file)
				if err := transfer.Export(w, records); err != nil {
					file.Close()
					return err
				}
				if err := w.Flush(); err != nil {
					file.Close()
					return fmt.Errorf("failed to write export file: %v", err)
				}
				if err := file.Close(); err != nil {
					return fmt.Errorf("failed to write export file: %v", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d spools to %s\n", len(records), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, or - for standard output")
	return cmd
}

func newImportCmd(open opener) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the inventory with the contents of an exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %v", err)
			}
			defer file.Close()

			return withApp(open, func(a *app) error {
				count, err := transfer.Import(a.store, bufio.NewReader(file), func(n int) bool {
					return yes || confirm(cmd, transfer.ConfirmMessage(n))
				})

				var formatErr *transfer.FormatError
				switch {
				case errors.As(err, &formatErr):
					return fmt.Errorf("Failed to import data. Please check the file format. (%v)", formatErr)
				case errors.Is(err, transfer.ErrImportDeclined):
					fmt.Fprintln(cmd.OutOrStdout(), "Import canceled; nothing was changed.")
					return nil
				case err != nil:
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Successfully imported %d filaments!\n", count)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newThemeCmd(open opener) *cobra.Command {
	show := func(cmd *cobra.Command, args []string) error {
		return withApp(open, func(a *app) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.themes.Get())
			return nil
		})
	}

	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the display theme",
		Args:  cobra.NoArgs,
		RunE:  show,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show the display theme",
			Args:  cobra.NoArgs,
			RunE:  show,
		},
		&cobra.Command{
			Use:       "set <light|dark>",
			Short:     "Set the display theme",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(models.ThemeLight), string(models.ThemeDark)},
			RunE: func(cmd *cobra.Command, args []string) error {
				name := strings.ToLower(args[0])
				if !models.IsValidTheme(name) {
					return fmt.Errorf("theme must be light or dark")
				}
				return withApp(open, func(a *app) error {
					if err := a.themes.Set(models.Theme(name)); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Switch between light and dark",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(open, func(a *app) error {
					theme, err := a.themes.Toggle()
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), theme)
					return nil
				})
			},
		},
	)
	return cmd
}
