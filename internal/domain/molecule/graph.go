package molecule

import (
	"sort"

	"github.com/turtacn/ReactKin/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Graph
// ─────────────────────────────────────────────────────────────────────────────

// Graph is the shared representation for concrete molecules and group
// patterns.  Atom order is the insertion order and is preserved by Copy,
// Merge, and Split, which keeps serialization deterministic.
type Graph struct {
	Atoms []*Atom

	// Pattern marks a group pattern.  Concrete molecules keep it false and
	// carry singleton candidate sets everywhere.
	Pattern bool

	// Multiplicity is the spin multiplicity of a concrete molecule, 0 when
	// unspecified.
	Multiplicity int

	// aromaticInvalid is set when a recipe action changed the order of an
	// aromatic bond; the structure must be kekulized or discarded before use.
	aromaticInvalid bool

	// ringCache memoizes ring membership until the next structural change.
	ringCache map[*Atom]bool
}

// NewGraph constructs an empty graph.
func NewGraph(pattern bool) *Graph {
	return &Graph{Pattern: pattern}
}

// AddAtom appends atom to the graph and returns it.
func (g *Graph) AddAtom(atom *Atom) *Atom {
	if atom.Bonds == nil {
		atom.Bonds = make(map[*Atom]*Bond)
	}
	g.Atoms = append(g.Atoms, atom)
	g.InvalidateCache()
	return atom
}

// AddBond connects a1 and a2 with bond.  Both atoms must already belong to
// the graph; an existing bond between them is an error.
func (g *Graph) AddBond(a1, a2 *Atom, bond *Bond) error {
	if a1 == a2 {
		return errors.New(errors.ErrCodeStructureInvalidBond, "cannot bond an atom to itself")
	}
	if _, ok := a1.Bonds[a2]; ok {
		return errors.New(errors.ErrCodeStructureInvalidBond, "atoms are already bonded")
	}
	a1.Bonds[a2] = bond
	a2.Bonds[a1] = bond
	g.InvalidateCache()
	return nil
}

// RemoveBond disconnects a1 and a2.
func (g *Graph) RemoveBond(a1, a2 *Atom) error {
	if _, ok := a1.Bonds[a2]; !ok {
		return errors.New(errors.ErrCodeStructureInvalidBond, "atoms are not bonded")
	}
	delete(a1.Bonds, a2)
	delete(a2.Bonds, a1)
	g.InvalidateCache()
	return nil
}

// HasBond reports whether a1 and a2 are bonded.
func (g *Graph) HasBond(a1, a2 *Atom) bool {
	_, ok := a1.Bonds[a2]
	return ok
}

// GetBond returns the bond between a1 and a2, nil when absent.
func (g *Graph) GetBond(a1, a2 *Atom) *Bond {
	return a1.Bonds[a2]
}

// InvalidateCache drops memoized connectivity information.  Called by every
// structural mutation and by the recipe executor before bond actions.
func (g *Graph) InvalidateCache() {
	g.ringCache = nil
}

// MarkAromaticInvalid flags the graph as holding a broken aromatic system.
func (g *Graph) MarkAromaticInvalid() { g.aromaticInvalid = true }

// AromaticInvalid reports whether an aromatic bond was structurally modified
// since the last kekulization.
func (g *Graph) AromaticInvalid() bool { return g.aromaticInvalid }

// ClearAromaticInvalid resets the flag after successful kekulization.
func (g *Graph) ClearAromaticInvalid() { g.aromaticInvalid = false }

// position returns the index of every atom in the graph's atom list.
func (g *Graph) position() map[*Atom]int {
	pos := make(map[*Atom]int, len(g.Atoms))
	for i, a := range g.Atoms {
		pos[a] = i
	}
	return pos
}

// ─────────────────────────────────────────────────────────────────────────────
// Labels
// ─────────────────────────────────────────────────────────────────────────────

// LabeledAtoms returns the reaction-center labels present in the graph.  A
// label may legitimately appear on two atoms (a duplicate-label pattern), so
// each value is a slice in atom order.
func (g *Graph) LabeledAtoms() map[string][]*Atom {
	out := make(map[string][]*Atom)
	for _, a := range g.Atoms {
		if a.Label != "" {
			out[a.Label] = append(out[a.Label], a)
		}
	}
	return out
}

// GetLabeledAtom returns the single atom carrying label.
func (g *Graph) GetLabeledAtom(label string) (*Atom, error) {
	var found *Atom
	for _, a := range g.Atoms {
		if a.Label == label {
			if found != nil {
				return nil, errors.New(errors.ErrCodeRecipeAmbiguousLabel,
					"label "+label+" appears on more than one atom")
			}
			found = a
		}
	}
	if found == nil {
		return nil, errors.New(errors.ErrCodeStructureLabelMissing, "no atom labeled "+label)
	}
	return found, nil
}

// ClearLabels removes every reaction-center label.
func (g *Graph) ClearLabels() {
	for _, a := range g.Atoms {
		a.Label = ""
	}
}

// ClearRegDims resets every regularization bound in the graph.
func (g *Graph) ClearRegDims() {
	for _, a := range g.Atoms {
		a.RegType.Clear()
		a.RegRad.Clear()
		a.RegRing.Clear()
		for _, b := range a.Bonds {
			b.RegOrd.Clear()
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Whole-graph properties
// ─────────────────────────────────────────────────────────────────────────────

// NetCharge sums the formal charges of a concrete graph.
func (g *Graph) NetCharge() int {
	total := 0
	for _, a := range g.Atoms {
		total += a.Charge()
	}
	return total
}

// RadicalCount sums the unpaired electrons of a concrete graph.
func (g *Graph) RadicalCount() int {
	total := 0
	for _, a := range g.Atoms {
		total += a.Radical()
	}
	return total
}

// IsSurfaceSite reports whether the graph is a bare surface site.
func (g *Graph) IsSurfaceSite() bool {
	return len(g.Atoms) == 1 && g.Atoms[0].IsSurfaceSite()
}

// ContainsSurfaceSite reports whether any atom is a surface site.
func (g *Graph) ContainsSurfaceSite() bool {
	for _, a := range g.Atoms {
		if a.IsSurfaceSite() {
			return true
		}
	}
	return false
}

// HasVdWBond reports whether any bond is a van der Waals contact.
func (g *Graph) HasVdWBond() bool {
	for _, a := range g.Atoms {
		for _, b := range a.Bonds {
			if b.IsOrder(OrderVdW) {
				return true
			}
		}
	}
	return false
}

// InRing reports whether atom lies on a cycle.  Membership is computed by
// iteratively pruning degree-1 atoms; whatever survives with a neighbour is
// cyclic.  The result is cached until the next structural change.
func (g *Graph) InRing(atom *Atom) bool {
	if g.ringCache == nil {
		g.computeRings()
	}
	return g.ringCache[atom]
}

func (g *Graph) computeRings() {
	degree := make(map[*Atom]int, len(g.Atoms))
	for _, a := range g.Atoms {
		degree[a] = len(a.Bonds)
	}
	queue := make([]*Atom, 0)
	for _, a := range g.Atoms {
		if degree[a] <= 1 {
			queue = append(queue, a)
		}
	}
	removed := make(map[*Atom]bool, len(g.Atoms))
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		if removed[a] {
			continue
		}
		removed[a] = true
		for n := range a.Bonds {
			if removed[n] {
				continue
			}
			degree[n]--
			if degree[n] <= 1 {
				queue = append(queue, n)
			}
		}
	}
	g.ringCache = make(map[*Atom]bool, len(g.Atoms))
	for _, a := range g.Atoms {
		g.ringCache[a] = !removed[a]
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Copy / Merge / Split
// ─────────────────────────────────────────────────────────────────────────────

// Copy deep-copies the graph and returns the new graph together with the
// old-atom→new-atom mapping.
func (g *Graph) Copy() (*Graph, map[*Atom]*Atom) {
	c := &Graph{
		Pattern:         g.Pattern,
		Multiplicity:    g.Multiplicity,
		aromaticInvalid: g.aromaticInvalid,
	}
	mapping := make(map[*Atom]*Atom, len(g.Atoms))
	for _, a := range g.Atoms {
		mapping[a] = a.copyShallow()
		c.Atoms = append(c.Atoms, mapping[a])
	}
	pos := g.position()
	for _, a := range g.Atoms {
		for _, n := range a.sortedNeighbors(pos) {
			if pos[n] < pos[a] {
				continue // each bond copied once
			}
			b := a.Bonds[n].copyShallow()
			mapping[a].Bonds[mapping[n]] = b
			mapping[n].Bonds[mapping[a]] = b
		}
	}
	return c, mapping
}

// Merge returns a new graph holding the atoms of g and every other graph.
// Atom objects are shared, not copied: mutations through the merged graph are
// visible in the sources.  Callers that need isolation copy first.
func Merge(graphs ...*Graph) *Graph {
	merged := &Graph{}
	for _, g := range graphs {
		merged.Pattern = merged.Pattern || g.Pattern
		merged.aromaticInvalid = merged.aromaticInvalid || g.aromaticInvalid
		merged.Atoms = append(merged.Atoms, g.Atoms...)
	}
	return merged
}

// Split partitions the graph into its connected components, preserving atom
// order within each component.  Atom objects are shared with the receiver.
func (g *Graph) Split() []*Graph {
	pos := g.position()
	seen := make(map[*Atom]bool, len(g.Atoms))
	var components []*Graph
	for _, root := range g.Atoms {
		if seen[root] {
			continue
		}
		// BFS collect, then restore graph order.
		queue := []*Atom{root}
		seen[root] = true
		var comp []*Atom
		for len(queue) > 0 {
			a := queue[0]
			queue = queue[1:]
			comp = append(comp, a)
			for n := range a.Bonds {
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Slice(comp, func(i, j int) bool { return pos[comp[i]] < pos[comp[j]] })
		components = append(components, &Graph{
			Atoms:           comp,
			Pattern:         g.Pattern,
			aromaticInvalid: g.aromaticInvalid,
		})
	}
	return components
}

// MergeGroups deep-copies the given patterns into a single multi-component
// pattern graph.  Used to assemble multi-slot root templates.
func MergeGroups(groups ...*Graph) *Graph {
	copies := make([]*Graph, len(groups))
	for i, grp := range groups {
		copies[i], _ = grp.Copy()
	}
	merged := Merge(copies...)
	merged.Pattern = true
	return merged
}
