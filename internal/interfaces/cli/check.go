package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCmd builds the check subcommand: structural consistency checks
// over a family's tree and rule table.
func NewCheckCmd() *cobra.Command {
	var familyLabel string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a family database for consistency",
		Long:  "Verifies that every child group is a subgraph of its parent, that all\nentries are reachable from a top-level node, and that synthesized rules\ncarry provenance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			labels := []string{familyLabel}
			if familyLabel == "" {
				labels, err = cliCtx.Store.ListFamilies()
				if err != nil {
					return err
				}
			}
			if len(labels) == 0 {
				return fmt.Errorf("no families found under %s", cliCtx.Store.Root())
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, label := range labels {
				f, err := cliCtx.Store.LoadFamily(label)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", label, err)
					continue
				}
				if err := f.Groups.CheckConsistency(); err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", label, err)
					continue
				}
				table, err := cliCtx.Store.LoadRules(label)
				if err == nil {
					err = table.Validate()
				}
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", label, err)
					continue
				}
				fmt.Fprintf(out, "OK   %s: %d tree entries, %d rules\n",
					label, f.Groups.Len(), table.Len())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d families failed consistency checks", failed, len(labels))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&familyLabel, "family", "f", "", "reaction family label (default: all)")
	return cmd
}
