package reaction

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/thermo"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// standardPressure is the thermodynamic reference pressure, Pa.
const standardPressure = 1e5

// Reaction relates reactant and product species with kinetics and flux
// bookkeeping.
type Reaction struct {
	ID        string
	Reactants []*Species
	Products  []*Species

	Kinetics   *kinetics.Arrhenius
	Degeneracy float64
	Reversible bool
	Duplicate  bool

	// Pairs relates each reactant to the product(s) it feeds, for flux
	// accounting.
	Pairs [][2]*Species
}

// NewReaction builds a reaction with degeneracy 1.
func NewReaction(reactants, products []*Species) *Reaction {
	return &Reaction{
		ID:         uuid.NewString(),
		Reactants:  reactants,
		Products:   products,
		Degeneracy: 1,
		Reversible: true,
	}
}

// String renders "A + B <=> C" style summaries for logs.
func (r *Reaction) String() string {
	arrow := " <=> "
	if !r.Reversible {
		arrow = " => "
	}
	return sideString(r.Reactants) + arrow + sideString(r.Products)
}

func sideString(side []*Species) string {
	names := make([]string, len(side))
	for i, s := range side {
		if s.Label != "" {
			names[i] = s.Label
		} else {
			names[i] = "?"
		}
	}
	return strings.Join(names, " + ")
}

// IsIsomorphic reports whether both reactions relate the same species.  With
// eitherDirection, the reversed assignment also counts.
func (r *Reaction) IsIsomorphic(other *Reaction, eitherDirection bool) bool {
	if SameSpeciesLists(r.Reactants, other.Reactants) &&
		SameSpeciesLists(r.Products, other.Products) {
		return true
	}
	if eitherDirection {
		return SameSpeciesLists(r.Reactants, other.Products) &&
			SameSpeciesLists(r.Products, other.Reactants)
	}
	return false
}

// Enthalpy is the reaction enthalpy at T, J/mol.
func (r *Reaction) Enthalpy(th thermo.Estimator, T float64) (float64, error) {
	return r.sideDelta(th, T, thermo.Estimator.Enthalpy)
}

// Entropy is the reaction entropy at T, J/(mol·K).
func (r *Reaction) Entropy(th thermo.Estimator, T float64) (float64, error) {
	return r.sideDelta(th, T, thermo.Estimator.Entropy)
}

func (r *Reaction) sideDelta(th thermo.Estimator, T float64,
	f func(thermo.Estimator, *molecule.Graph, float64) (float64, error)) (float64, error) {
	var sum float64
	for _, s := range r.Products {
		v, err := f(th, s.Molecule, T)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	for _, s := range r.Reactants {
		v, err := f(th, s.Molecule, T)
		if err != nil {
			return 0, err
		}
		sum -= v
	}
	return sum, nil
}

// EquilibriumConstant returns Kc at T in concentration units (mol/m³ to the
// power of the mole change).
func (r *Reaction) EquilibriumConstant(th thermo.Estimator, T float64) (float64, error) {
	dH, err := r.Enthalpy(th, T)
	if err != nil {
		return 0, err
	}
	dS, err := r.Entropy(th, T)
	if err != nil {
		return 0, err
	}
	dG := dH - T*dS
	ka := math.Exp(-dG / (kinetics.GasConstant * T))
	dn := float64(len(r.Products) - len(r.Reactants))
	c0 := standardPressure / (kinetics.GasConstant * T)
	return ka * math.Pow(c0, dn), nil
}

// GenerateReverseRate derives the reverse-direction Arrhenius expression from
// the forward kinetics and the equilibrium constant sampled over the working
// temperature range.
func (r *Reaction) GenerateReverseRate(th thermo.Estimator) (*kinetics.Arrhenius, error) {
	if r.Kinetics == nil {
		return nil, errors.New(errors.ErrCodeKineticsUndeterminable,
			"reaction has no forward kinetics")
	}
	var temps, ks []float64
	for T := 300.0; T <= 2000; T += 100 {
		kc, err := r.EquilibriumConstant(th, T)
		if err != nil {
			return nil, err
		}
		if kc <= 0 {
			continue
		}
		temps = append(temps, T)
		ks = append(ks, r.Kinetics.Rate(T)/kc)
	}
	return kinetics.FitArrhenius(temps, ks)
}

// Reversed returns the reaction with sides swapped and no kinetics attached.
func (r *Reaction) Reversed() *Reaction {
	return &Reaction{
		ID:         uuid.NewString(),
		Reactants:  r.Products,
		Products:   r.Reactants,
		Degeneracy: r.Degeneracy,
		Reversible: r.Reversible,
	}
}

// TemplateReaction tags a reaction with the family machinery that produced
// it.
type TemplateReaction struct {
	Reaction

	// Family is the originating family label.
	Family string

	// Template lists the matched tree-node labels, reactant order.
	Template []string

	// Estimator names the source of the kinetics, "rate rules" or
	// "group additivity".
	Estimator string

	// IsForward records which family direction produced the reaction.
	IsForward bool

	// Reverse pairs the opposite-direction reaction when it exists.
	Reverse *TemplateReaction
}
