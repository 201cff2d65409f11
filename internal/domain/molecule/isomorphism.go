package molecule

// ─────────────────────────────────────────────────────────────────────────────
// Subgraph isomorphism
//
// A VF2-style backtracking matcher maps pattern atoms onto host atoms.  The
// semantic compatibility rules depend on the host kind:
//
//   - concrete host: the host value must be a member (types: a descendant) of
//     the pattern's candidate set; an empty pattern set is a wildcard.
//   - pattern host: the host's candidate set must be contained in the
//     pattern's (types: every host type descends from some pattern type).
//     This is the child-under-parent check used by tree consistency.
//
// Matching is not induced: host bonds absent from the pattern are ignored,
// but every pattern bond must map onto a compatible host bond.
// ─────────────────────────────────────────────────────────────────────────────

// Mapping relates pattern atoms to host atoms.
type Mapping map[*Atom]*Atom

// atomCompatible reports whether hostAtom can play the role of patAtom.
func atomCompatible(host *Graph, hostAtom, patAtom *Atom) bool {
	if host.Pattern {
		return typesSubset(hostAtom.Types, patAtom.Types) &&
			intsSubset(hostAtom.Radicals, patAtom.Radicals) &&
			intsSubset(hostAtom.LonePairs, patAtom.LonePairs) &&
			intsSubset(hostAtom.Charges, patAtom.Charges) &&
			boolsSubset(hostAtom.Ring, patAtom.Ring)
	}
	if len(hostAtom.Types) != 1 {
		return false
	}
	if !anySpecificCaseOf(hostAtom.Types[0], patAtom.Types) {
		return false
	}
	if !intMember(hostAtom.Radical(), patAtom.Radicals) {
		return false
	}
	if !intMember(hostAtom.LonePairCount(), patAtom.LonePairs) {
		return false
	}
	if !intMember(hostAtom.Charge(), patAtom.Charges) {
		return false
	}
	if len(patAtom.Ring) == 1 && host.InRing(hostAtom) != patAtom.Ring[0] {
		return false
	}
	return true
}

// bondCompatible reports whether hostBond can play the role of patBond.
func bondCompatible(hostIsPattern bool, hostBond, patBond *Bond) bool {
	if hostIsPattern {
		return ordersSubset(hostBond.Orders, patBond.Orders)
	}
	if len(hostBond.Orders) != 1 {
		return false
	}
	return patBond.HasOrder(hostBond.Orders[0])
}

func typesSubset(sub, super []AtomType) bool {
	if len(super) == 0 {
		return true
	}
	if len(sub) == 0 {
		return false // wildcard is never contained in a restriction
	}
	for _, t := range sub {
		if !anySpecificCaseOf(t, super) {
			return false
		}
	}
	return true
}

func intsSubset(sub, super []int) bool {
	if len(super) == 0 {
		return true
	}
	if len(sub) == 0 {
		return false
	}
	for _, v := range sub {
		if !intMember(v, super) {
			return false
		}
	}
	return true
}

func boolsSubset(sub, super []bool) bool {
	if len(super) == 0 {
		return true
	}
	if len(sub) == 0 {
		return false
	}
	for _, v := range sub {
		found := false
		for _, s := range super {
			if v == s {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func intMember(v int, set []int) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// matchState carries the shared matcher state through the recursion.
type matchState struct {
	host      *Graph
	pattern   *Graph
	forward   Mapping          // pattern → host
	reverse   map[*Atom]*Atom  // host → pattern
	hostPos   map[*Atom]int
	identical bool // require equal candidate sets instead of containment
	findAll   bool
	results   []Mapping
}

func (s *matchState) compatible(patAtom, hostAtom *Atom) bool {
	if s.identical {
		return atomCompatible(s.host, hostAtom, patAtom) &&
			atomCompatible(s.pattern, patAtom, hostAtom)
	}
	return atomCompatible(s.host, hostAtom, patAtom)
}

func (s *matchState) bondOK(patBond, hostBond *Bond) bool {
	if s.identical {
		return bondCompatible(true, hostBond, patBond) && bondCompatible(true, patBond, hostBond)
	}
	return bondCompatible(s.host.Pattern, hostBond, patBond)
}

// nextPatternAtom picks the next unmapped pattern atom, preferring one
// adjacent to the mapped frontier so candidates stay constrained.
func (s *matchState) nextPatternAtom() *Atom {
	for _, a := range s.pattern.Atoms {
		if _, done := s.forward[a]; done {
			continue
		}
		for n := range a.Bonds {
			if _, done := s.forward[n]; done {
				return a
			}
		}
	}
	for _, a := range s.pattern.Atoms {
		if _, done := s.forward[a]; !done {
			return a
		}
	}
	return nil
}

func (s *matchState) match() bool {
	if len(s.forward) == len(s.pattern.Atoms) {
		result := make(Mapping, len(s.forward))
		for k, v := range s.forward {
			result[k] = v
		}
		s.results = append(s.results, result)
		return !s.findAll
	}

	patAtom := s.nextPatternAtom()

	// Candidate host atoms: if the pattern atom borders the mapped frontier,
	// only neighbours of the mapped images qualify.
	var candidates []*Atom
	restricted := false
	for n, patBond := range patAtom.Bonds {
		if img, done := s.forward[n]; done {
			restricted = true
			candidates = candidates[:0]
			for hn, hostBond := range img.Bonds {
				if s.bondOK(patBond, hostBond) {
					candidates = append(candidates, hn)
				}
			}
			break
		}
	}
	if !restricted {
		candidates = s.host.Atoms
	}

	for _, hostAtom := range candidates {
		if _, used := s.reverse[hostAtom]; used {
			continue
		}
		if !s.compatible(patAtom, hostAtom) {
			continue
		}
		// Every mapped pattern neighbour must connect through a compatible
		// host bond.
		ok := true
		for n, patBond := range patAtom.Bonds {
			img, done := s.forward[n]
			if !done {
				continue
			}
			hostBond := hostAtom.Bonds[img]
			if hostBond == nil || !s.bondOK(patBond, hostBond) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		s.forward[patAtom] = hostAtom
		s.reverse[hostAtom] = patAtom
		if s.match() {
			return true
		}
		delete(s.forward, patAtom)
		delete(s.reverse, hostAtom)
	}
	return false
}

// FindSubgraphIsomorphisms returns every mapping of pattern onto g.  initial
// pre-seeds the mapping (pattern atom → host atom), typically from matched
// reaction-center labels; incompatible seeds yield no results.
func (g *Graph) FindSubgraphIsomorphisms(pattern *Graph, initial Mapping) []Mapping {
	return g.findMappings(pattern, initial, true, false)
}

// IsSubgraphIsomorphic reports whether pattern matches somewhere in g under
// the optional initial mapping.
func (g *Graph) IsSubgraphIsomorphic(pattern *Graph, initial Mapping) bool {
	return len(g.findMappings(pattern, initial, false, false)) > 0
}

// IsIsomorphic reports whether g and other are fully isomorphic: same atom
// count and a bijection under the containment semantics, checked in both
// directions for patterns.
func (g *Graph) IsIsomorphic(other *Graph) bool {
	if len(g.Atoms) != len(other.Atoms) {
		return false
	}
	if g.Multiplicity != 0 && other.Multiplicity != 0 && g.Multiplicity != other.Multiplicity {
		return false
	}
	if g.Pattern || other.Pattern {
		return g.IsIdentical(other)
	}
	if countBonds(g) != countBonds(other) {
		return false
	}
	return len(g.findMappings(other, nil, false, false)) > 0
}

// IsIdentical reports whether two patterns are structurally identical: a
// bijection exists under which every candidate set is equal.
func (g *Graph) IsIdentical(other *Graph) bool {
	if len(g.Atoms) != len(other.Atoms) || countBonds(g) != countBonds(other) {
		return false
	}
	return len(g.findMappings(other, nil, false, true)) > 0
}

func (g *Graph) findMappings(pattern *Graph, initial Mapping, all, identical bool) []Mapping {
	if len(pattern.Atoms) == 0 || len(pattern.Atoms) > len(g.Atoms) {
		return nil
	}
	s := &matchState{
		host:      g,
		pattern:   pattern,
		forward:   make(Mapping, len(pattern.Atoms)),
		reverse:   make(map[*Atom]*Atom, len(pattern.Atoms)),
		hostPos:   g.position(),
		identical: identical,
		findAll:   all,
	}
	for patAtom, hostAtom := range initial {
		if !s.compatible(patAtom, hostAtom) {
			return nil
		}
		s.forward[patAtom] = hostAtom
		s.reverse[hostAtom] = patAtom
	}
	// Seeded bonds must already be consistent.
	for patAtom, hostAtom := range initial {
		for n, patBond := range patAtom.Bonds {
			img, done := s.forward[n]
			if !done {
				continue
			}
			hostBond := hostAtom.Bonds[img]
			if hostBond == nil || !s.bondOK(patBond, hostBond) {
				return nil
			}
		}
	}
	s.match()
	return s.results
}

func countBonds(g *Graph) int {
	n := 0
	for _, a := range g.Atoms {
		n += len(a.Bonds)
	}
	return n / 2
}
