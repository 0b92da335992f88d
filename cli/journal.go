package cli

import (
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devadigapratham/spoolkeeper/config"
)

var errNoJournal = errors.New("the journal is only available with --backend " + config.BackendRaft)

func newJournalCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect or compact the raft journal backend",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show the journal's raft state and log indexes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(open, func(a *app) error {
					if a.journal == nil {
						return errNoJournal
					}
					node := a.journal.Node()
					stats := node.Stats()

					keys := make([]string, 0, len(stats))
					for k := range stats {
						keys = append(keys, k)
					}
					sort.Strings(keys)

					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
					fmt.Fprintf(tw, "%s\t%s\n", bold("state"), node.State())
					for _, k := range keys {
						fmt.Fprintf(tw, "%s\t%s\n", gray(k), stats[k])
					}
					return tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "compact",
			Short: "Snapshot the collection so older log entries can be discarded",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(open, func(a *app) error {
					if a.journal == nil {
						return errNoJournal
					}
					if err := a.journal.Compact(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Journal compacted.")
					return nil
				})
			},
		},
	)
	return cmd
}
