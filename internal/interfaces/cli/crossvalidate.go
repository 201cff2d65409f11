package cli

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ReactKin/internal/application/estimator"
	"github.com/turtacn/ReactKin/internal/application/treegen"
	"github.com/turtacn/ReactKin/internal/domain/rules"
)

// validationRow is one held-out reaction's outcome.
type validationRow struct {
	Reaction    string  `json:"reaction"`
	LogError    float64 `json:"log_error"`
	Uncertainty float64 `json:"uncertainty,omitempty"`
}

// NewCrossValidateCmd builds the crossvalidate subcommand: K-fold validation
// of a family's fitted tree against its own training reactions.
func NewCrossValidateCmd() *cobra.Command {
	var (
		familyLabel string
		folds       int
	)

	cmd := &cobra.Command{
		Use:   "crossvalidate",
		Short: "Cross-validate a family's rate rules against its training set",
		Long:  "Holds out each training-reaction fold in turn, refits the matched tree\nnode without it, and reports ln(k_estimated/k_known) per reaction at the\nconfigured evaluation temperature.",
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

			est := estimator.NewService(f, table, []*rules.Depository{training},
				nil, cliCtx.Config.Estimation,
				estimator.WithLogger(cliCtx.Logger),
				estimator.WithWorkerConfig(cliCtx.Config.Worker))
			builder := treegen.NewBuilder(f, nil, cliCtx.Config.Tree,
				treegen.WithLogger(cliCtx.Logger))

			rxns, err := builder.TrainingSet(cmd.Context(), training, false)
			if err != nil {
				return err
			}
			rxnMap, err := builder.ReactionMatches(rxns, false)
			if err != nil {
				return err
			}

			vcfg := cliCtx.Config.Validation
			if cmd.Flags().Changed("folds") {
				vcfg.Folds = folds
			}
			report, err := est.CrossValidate(cmd.Context(), rxnMap, vcfg)
			if err != nil {
				return err
			}

			rows := make([]validationRow, 0, len(report.Errors))
			var sumSq float64
			for rxn, lerr := range report.Errors {
				row := validationRow{Reaction: rxn.String(), LogError: lerr}
				if u := report.Uncertainties[rxn]; u != nil {
					row.Uncertainty = u.ExpectedLogUncertainty()
				}
				rows = append(rows, row)
				sumSq += lerr * lerr
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].Reaction < rows[j].Reaction })

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return PrintResult(cmd, rows)
			}
			out := cmd.OutOrStdout()
			for _, row := range rows {
				fmt.Fprintf(out, "  %-50s  ln error %+.3f", row.Reaction, row.LogError)
				if row.Uncertainty != 0 {
					fmt.Fprintf(out, "  (expected %.3f)", row.Uncertainty)
				}
				fmt.Fprintln(out)
			}
			if len(rows) > 0 {
				fmt.Fprintf(out, "RMS ln error over %d reaction(s): %.3f\n",
					len(rows), math.Sqrt(sumSq/float64(len(rows))))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&familyLabel, "family", "f", "", "reaction family label (required)")
	cmd.Flags().IntVar(&folds, "folds", 0, "fold count, 0 for leave-one-out")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}
