// Package molecule implements the graph representation shared by concrete
// molecules and group patterns, together with the subgraph-isomorphism,
// resonance, and pattern-extension operations the kinetics engine is built on.
//
// A single Graph type serves both roles.  A concrete molecule carries
// singleton candidate sets on every atom and bond; a pattern (Pattern=true)
// may leave any dimension as a multi-valued or empty (wildcard) candidate set.
package molecule

// ─────────────────────────────────────────────────────────────────────────────
// Atom-type lattice
// ─────────────────────────────────────────────────────────────────────────────

// AtomType identifies a node in the atom-type lattice.  Generic types (R,
// R!H, C, O) sit above their specializations (Cs, Cd, Ct, Cb; Os, Od); a
// concrete molecule atom always carries a leaf or element-level type.
type AtomType string

const (
	// TypeR matches any atom.
	TypeR AtomType = "R"
	// TypeRnotH matches any heavy atom.
	TypeRnotH AtomType = "R!H"

	TypeH  AtomType = "H"
	TypeC  AtomType = "C"
	TypeCs AtomType = "Cs" // sp3 carbon
	TypeCd AtomType = "Cd" // sp2 carbon, one double bond
	TypeCt AtomType = "Ct" // sp carbon, one triple bond
	TypeCb AtomType = "Cb" // aromatic carbon
	TypeN  AtomType = "N"
	TypeO  AtomType = "O"
	TypeOs AtomType = "Os" // sp3 oxygen
	TypeOd AtomType = "Od" // double-bonded oxygen
	TypeSi AtomType = "Si"
	TypeS  AtomType = "S"
	TypeCl AtomType = "Cl"
	// TypeX is a surface site.
	TypeX AtomType = "X"
)

// parentOf records the immediate parent of each type in the lattice.
// TypeR is the root and has no entry.
var parentOf = map[AtomType]AtomType{
	TypeH:     TypeR,
	TypeRnotH: TypeR,
	TypeC:     TypeRnotH,
	TypeCs:    TypeC,
	TypeCd:    TypeC,
	TypeCt:    TypeC,
	TypeCb:    TypeC,
	TypeN:     TypeRnotH,
	TypeO:     TypeRnotH,
	TypeOs:    TypeO,
	TypeOd:    TypeO,
	TypeSi:    TypeRnotH,
	TypeS:     TypeRnotH,
	TypeCl:    TypeRnotH,
	TypeX:     TypeR,
}

// childrenOf is the inverse of parentOf, in a fixed order for deterministic
// extension generation.
var childrenOf = map[AtomType][]AtomType{
	TypeR:     {TypeH, TypeRnotH, TypeX},
	TypeRnotH: {TypeC, TypeN, TypeO, TypeSi, TypeS, TypeCl},
	TypeC:     {TypeCs, TypeCd, TypeCt, TypeCb},
	TypeO:     {TypeOs, TypeOd},
}

// IsValidAtomType reports whether s names a known atom type.
func IsValidAtomType(s string) bool {
	if AtomType(s) == TypeR {
		return true
	}
	_, ok := parentOf[AtomType(s)]
	return ok
}

// Parent returns the immediate ancestor of t, or TypeR for the root itself.
func (t AtomType) Parent() AtomType {
	if p, ok := parentOf[t]; ok {
		return p
	}
	return TypeR
}

// Children returns the immediate specializations of t, nil for leaves.
func (t AtomType) Children() []AtomType {
	return childrenOf[t]
}

// IsSpecificCaseOf reports whether t is other or lies below other in the
// lattice.
func (t AtomType) IsSpecificCaseOf(other AtomType) bool {
	for {
		if t == other {
			return true
		}
		p, ok := parentOf[t]
		if !ok {
			return false
		}
		t = p
	}
}

// Element returns the element-level ancestor of t: Cs→C, Od→O, and so on.
// Generic types map to themselves.
func (t AtomType) Element() AtomType {
	switch t {
	case TypeCs, TypeCd, TypeCt, TypeCb:
		return TypeC
	case TypeOs, TypeOd:
		return TypeO
	}
	return t
}

// anySpecificCaseOf reports whether t descends from any member of set.
// An empty set is a wildcard.
func anySpecificCaseOf(t AtomType, set []AtomType) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if t.IsSpecificCaseOf(s) {
			return true
		}
	}
	return false
}
