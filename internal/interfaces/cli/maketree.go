package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/ReactKin/internal/application/estimator"
	"github.com/turtacn/ReactKin/internal/application/treegen"
	"github.com/turtacn/ReactKin/internal/domain/rules"
)

// NewMakeTreeCmd builds the maketree subcommand: regenerate a family's group
// tree from its training depository and fit a rule per node.
func NewMakeTreeCmd() *cobra.Command {
	var (
		familyLabel string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "maketree",
		Short: "Rebuild a family's group tree from training reactions",
		Long:  "Loads the family and its training depository, greedily splits tree\nnodes on the configured objective, regularizes the result, fits a\nBlowers-Masel rule per node, and writes the tree and rules back.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			f, err := cliCtx.Store.LoadFamily(familyLabel)
			if err != nil {
				return err
			}
			table, err := cliCtx.Store.LoadRules(familyLabel)
			if err != nil {
				return err
			}
			training, err := cliCtx.Store.LoadDepository(familyLabel, "training")
			if err != nil {
				return err
			}
			if training.Len() == 0 {
				return fmt.Errorf("family %s has no training reactions", familyLabel)
			}

			est := estimator.NewService(f, table, []*rules.Depository{training},
				nil, cliCtx.Config.Estimation,
				estimator.WithLogger(cliCtx.Logger),
				estimator.WithWorkerConfig(cliCtx.Config.Worker))
			builder := treegen.NewBuilder(f, nil, cliCtx.Config.Tree,
				treegen.WithLogger(cliCtx.Logger),
				treegen.WithEstimator(est))

			if err := builder.MakeTree(cmd.Context(), training); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "family %s: %d tree entries, %d rules\n",
				familyLabel, f.Groups.Len(), table.Len())
			if dryRun {
				fmt.Fprintln(out, "dry run, nothing written")
				return nil
			}
			if err := cliCtx.Store.SaveFamily(f); err != nil {
				return err
			}
			return cliCtx.Store.SaveRules(table)
		},
	}

	cmd.Flags().StringVarP(&familyLabel, "family", "f", "", "reaction family label (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the tree without writing files")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}
