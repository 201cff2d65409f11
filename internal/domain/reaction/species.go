package reaction

import (
	"github.com/google/uuid"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
)

// Species wraps one structure together with its resonance forms.  Identity is
// transient; two Species are the same chemical if any resonance form of one
// is isomorphic to any form of the other.
type Species struct {
	ID    string
	Label string

	// Molecule is the representative structure.
	Molecule *molecule.Graph

	resonance []*molecule.Graph
}

// NewSpecies wraps a structure.
func NewSpecies(g *molecule.Graph, label string) *Species {
	return &Species{ID: uuid.NewString(), Label: label, Molecule: g}
}

// ResonanceStructures returns the cached resonance closure.
func (s *Species) ResonanceStructures() []*molecule.Graph {
	if s.resonance == nil {
		s.resonance = s.Molecule.ResonanceStructures()
	}
	return s.resonance
}

// IsIsomorphic reports chemical identity across resonance forms.
func (s *Species) IsIsomorphic(other *Species) bool {
	for _, a := range s.ResonanceStructures() {
		for _, b := range other.ResonanceStructures() {
			if a.IsIsomorphic(b) {
				return true
			}
		}
	}
	return false
}

// SameSpeciesLists reports whether two species lists are equal as multisets
// under resonance-aware isomorphism.
func SameSpeciesLists(a, b []*Species) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, sa := range a {
		found := false
		for j, sb := range b {
			if !used[j] && sa.IsIsomorphic(sb) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
