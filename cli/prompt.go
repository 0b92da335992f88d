package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// confirm asks a yes/no question on the command's streams. Anything other
// than y or yes, including end of input, is a no.
func confirm(cmd *cobra.Command, question string) bool {
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "%s %s ", color.YellowString(question), color.New(color.Bold).Sprint("[y/N]"))

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
