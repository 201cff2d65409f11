package thermo

import (
	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// Estimator supplies thermodynamic data for concrete molecules.  The engine
// only needs it to turn forward rates into reverse rates via equilibrium; the
// actual estimation (group additivity, libraries) lives outside this module.
type Estimator interface {
	// Enthalpy returns the standard enthalpy of formation at T, J/mol.
	Enthalpy(g *molecule.Graph, T float64) (float64, error)

	// Entropy returns the standard entropy at T, J/(mol·K).
	Entropy(g *molecule.Graph, T float64) (float64, error)
}

// Datum is a fixed (H298, S298) pair for the table estimator.
type Datum struct {
	H float64
	S float64
}

// TableEstimator resolves thermochemistry by isomorphism against a fixed
// table of structures.  Temperature dependence is ignored; it serves tests
// and small training corpora.
type TableEstimator struct {
	structures []*molecule.Graph
	data       []Datum
}

// NewTableEstimator builds an empty table.
func NewTableEstimator() *TableEstimator {
	return &TableEstimator{}
}

// Add registers a structure's thermochemistry.
func (e *TableEstimator) Add(g *molecule.Graph, d Datum) {
	e.structures = append(e.structures, g)
	e.data = append(e.data, d)
}

func (e *TableEstimator) lookup(g *molecule.Graph) (Datum, error) {
	for i, s := range e.structures {
		if g.IsIsomorphic(s) {
			return e.data[i], nil
		}
	}
	return Datum{}, errors.NotFound("no thermochemistry for structure").
		WithDetail(g.ToAdjacencyList())
}

func (e *TableEstimator) Enthalpy(g *molecule.Graph, _ float64) (float64, error) {
	d, err := e.lookup(g)
	return d.H, err
}

func (e *TableEstimator) Entropy(g *molecule.Graph, _ float64) (float64, error) {
	d, err := e.lookup(g)
	return d.S, err
}
