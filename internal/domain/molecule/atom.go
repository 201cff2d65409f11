package molecule

import "sort"

// ─────────────────────────────────────────────────────────────────────────────
// Regularization bounds
// ─────────────────────────────────────────────────────────────────────────────

// RegBound records, for one pattern dimension, the candidate values that were
// actually observed while searching for extensions of a tree node.  The tree
// regularization pass later tightens unspecified dimensions to these observed
// values.  A RegBound with Set=false has recorded nothing and imposes no
// constraint.
type RegBound[T comparable] struct {
	// Values observed across every matching structure.
	All []T
	// Values observed in at least one matching structure.
	Any []T
	Set bool
}

// Record merges the observed value sets into the bound.
func (r *RegBound[T]) Record(all, anyVals []T) {
	r.All = all
	r.Any = anyVals
	r.Set = true
}

// Clear resets the bound to the unconstrained state.
func (r *RegBound[T]) Clear() {
	r.All = nil
	r.Any = nil
	r.Set = false
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom
// ─────────────────────────────────────────────────────────────────────────────

// Atom is a vertex of a Graph.  Every chemical dimension is a candidate set:
// a concrete molecule atom carries exactly one value per set, a pattern atom
// may carry several, and an empty set is a wildcard (pattern only).
type Atom struct {
	// Types is the atom-type candidate set.
	Types []AtomType

	// Radicals is the unpaired-electron-count candidate set.
	Radicals []int

	// LonePairs is the lone-pair-count candidate set.
	LonePairs []int

	// Charges is the formal-charge candidate set.
	Charges []int

	// Ring constrains ring membership when it holds exactly one value.
	// Empty means unconstrained.
	Ring []bool

	// Label is the reaction-center label ("*1", "*2", …), empty when the atom
	// is not a center.
	Label string

	// Bonds maps each bonded neighbour to the connecting Bond.  Both
	// endpoints share the same *Bond value.
	Bonds map[*Atom]*Bond

	// Regularization bounds recorded during extension search.
	RegType RegBound[AtomType]
	RegRad  RegBound[int]
	RegRing RegBound[bool]
}

// NewAtom constructs an unbonded atom with the given type candidates.
func NewAtom(types ...AtomType) *Atom {
	return &Atom{
		Types: types,
		Bonds: make(map[*Atom]*Bond),
	}
}

// NewConcreteAtom constructs a fully specified molecule atom.
func NewConcreteAtom(t AtomType, radicals, lonePairs, charge int) *Atom {
	return &Atom{
		Types:     []AtomType{t},
		Radicals:  []int{radicals},
		LonePairs: []int{lonePairs},
		Charges:   []int{charge},
		Bonds:     make(map[*Atom]*Bond),
	}
}

// IsConcrete reports whether every dimension holds exactly one value.
func (a *Atom) IsConcrete() bool {
	return len(a.Types) == 1 && len(a.Radicals) == 1 &&
		len(a.LonePairs) == 1 && len(a.Charges) == 1
}

// IsSurfaceSite reports whether the atom is a surface site.
func (a *Atom) IsSurfaceSite() bool {
	return len(a.Types) == 1 && a.Types[0] == TypeX
}

// Radical returns the single radical count of a concrete atom, 0 when the
// dimension is unspecified.
func (a *Atom) Radical() int {
	if len(a.Radicals) == 1 {
		return a.Radicals[0]
	}
	return 0
}

// Charge returns the single formal charge of a concrete atom, 0 when the
// dimension is unspecified.
func (a *Atom) Charge() int {
	if len(a.Charges) == 1 {
		return a.Charges[0]
	}
	return 0
}

// LonePairCount returns the single lone-pair count of a concrete atom, 0 when
// the dimension is unspecified.
func (a *Atom) LonePairCount() int {
	if len(a.LonePairs) == 1 {
		return a.LonePairs[0]
	}
	return 0
}

// copyShallow clones the atom's value sets without bonds.
func (a *Atom) copyShallow() *Atom {
	c := &Atom{
		Types:     append([]AtomType(nil), a.Types...),
		Radicals:  append([]int(nil), a.Radicals...),
		LonePairs: append([]int(nil), a.LonePairs...),
		Charges:   append([]int(nil), a.Charges...),
		Ring:      append([]bool(nil), a.Ring...),
		Label:     a.Label,
		Bonds:     make(map[*Atom]*Bond, len(a.Bonds)),
	}
	c.RegType = a.RegType
	c.RegRad = a.RegRad
	c.RegRing = a.RegRing
	return c
}

// sortedNeighbors returns the atom's neighbours in a deterministic order
// given a position index for every atom of the owning graph.
func (a *Atom) sortedNeighbors(pos map[*Atom]int) []*Atom {
	out := make([]*Atom, 0, len(a.Bonds))
	for n := range a.Bonds {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return pos[out[i]] < pos[out[j]] })
	return out
}
