package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ReactKin/internal/application/estimator"
	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/rules"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
)

// generateResult is one generated reaction in reportable form.
type generateResult struct {
	Reaction   string              `json:"reaction"`
	Family     string              `json:"family"`
	Template   []string            `json:"template"`
	Forward    bool                `json:"forward"`
	Degeneracy float64             `json:"degeneracy"`
	Kinetics   *kinetics.Arrhenius `json:"kinetics,omitempty"`
	Source     string              `json:"source,omitempty"`
}

// NewGenerateCmd builds the generate subcommand: react the given structures
// through one family and report every distinct reaction.
func NewGenerateCmd() *cobra.Command {
	var (
		familyLabel string
		estimate    bool
	)

	cmd := &cobra.Command{
		Use:   "generate <reactant.adj> [reactant2.adj]",
		Short: "Generate reactions for probe reactants",
		Long:  "Reads one or two adjacency-list files, applies the family's recipe to\nevery template match, and prints the distinct reactions with their\ndegeneracies.  With --estimate each reaction also gets rate-rule kinetics.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			reactants := make([]*reaction.Species, 0, len(args))
			for _, path := range args {
				sp, err := readSpecies(path)
				if err != nil {
					return err
				}
				reactants = append(reactants, sp)
			}

			f, err := cliCtx.Store.LoadFamily(familyLabel)
			if err != nil {
				return err
			}

			rxns, err := f.GenerateReactions(reactants, nil,
				cliCtx.Config.Generation.ProdResonance)
			if err != nil {
				return err
			}

			var est *estimator.Service
			if estimate {
				table, err := cliCtx.Store.LoadRules(familyLabel)
				if err != nil {
					return err
				}
				training, err := cliCtx.Store.LoadDepository(familyLabel, "training")
				if err != nil {
					return err
				}
				est = estimator.NewService(f, table, []*rules.Depository{training},
					nil, cliCtx.Config.Estimation,
					estimator.WithLogger(cliCtx.Logger))
			}

			results := make([]generateResult, 0, len(rxns))
			for _, rxn := range rxns {
				r := generateResult{
					Reaction:   rxn.String(),
					Family:     rxn.Family,
					Template:   rxn.Template,
					Forward:    rxn.IsForward,
					Degeneracy: rxn.Degeneracy,
				}
				if est != nil {
					if res, err := est.GetKinetics(cmd.Context(), rxn, false); err == nil && len(res) > 0 {
						r.Kinetics = res[0].Kinetics
						r.Source = res[0].Source
					} else if err != nil {
						cliCtx.Logger.Warn("kinetics unresolved for "+r.Reaction,
							logging.Err(err))
					}
				}
				results = append(results, r)
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return PrintResult(cmd, results)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d reaction(s) from family %s\n", len(results), familyLabel)
			for _, r := range results {
				fmt.Fprintf(out, "  %s  [%s]  degeneracy %g\n",
					r.Reaction, strings.Join(r.Template, ";"), r.Degeneracy)
				if r.Kinetics != nil {
					fmt.Fprintf(out, "    k(T) = %g (T/%g)^%g exp(-%g/RT)  via %s\n",
						r.Kinetics.A, orOne(r.Kinetics.T0), r.Kinetics.N, r.Kinetics.Ea, r.Source)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&familyLabel, "family", "f", "", "reaction family label (required)")
	cmd.Flags().BoolVar(&estimate, "estimate", false, "resolve kinetics for each generated reaction")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}

func readSpecies(path string) (*reaction.Species, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	g, err := molecule.FromAdjacencyList(string(data), false)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	label := strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ".adj"), ".txt")
	return reaction.NewSpecies(g, label), nil
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
