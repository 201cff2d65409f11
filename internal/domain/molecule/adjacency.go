package molecule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/ReactKin/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Adjacency-list serialization
//
// The on-disk form is one line per atom:
//
//	1 *1 C  u1 p0 c0 {2,S} {3,S}
//	2    H  u0 p0 c0 {1,S}
//
// Pattern graphs may list candidate sets and leave dimensions out entirely:
//
//	1 *1 [Cs,Cd] u[0,1] r1 {2,[S,D]}
//	2 *2 R!H
//
// An optional leading "multiplicity N" line carries the spin multiplicity of
// a concrete molecule.  Load(Dump(g)) reproduces g exactly, including atom
// order.
// ─────────────────────────────────────────────────────────────────────────────

var bondToken = regexp.MustCompile(`^\{(\d+),([^}]+)\}$`)

// orderLetter maps a numeric bond order onto its serialized letter.
func orderLetter(order float64) (string, error) {
	switch {
	case orderEqual(order, OrderSingle):
		return "S", nil
	case orderEqual(order, OrderDouble):
		return "D", nil
	case orderEqual(order, OrderTriple):
		return "T", nil
	case orderEqual(order, OrderAromatic):
		return "B", nil
	case orderEqual(order, OrderVdW):
		return "vdW", nil
	}
	return "", errors.Newf(errors.ErrCodeStructureInvalidBond, "bond order %g has no letter form", order)
}

func parseOrderLetter(s string) (float64, error) {
	switch s {
	case "S":
		return OrderSingle, nil
	case "D":
		return OrderDouble, nil
	case "T":
		return OrderTriple, nil
	case "B":
		return OrderAromatic, nil
	case "vdW":
		return OrderVdW, nil
	}
	return 0, errors.New(errors.ErrCodeStructureInvalidBond, "unknown bond order "+s)
}

// ToAdjacencyList serializes the graph in the format above.
func (g *Graph) ToAdjacencyList() string {
	pos := g.position()
	var sb strings.Builder
	if g.Multiplicity != 0 {
		fmt.Fprintf(&sb, "multiplicity %d\n", g.Multiplicity)
	}
	for i, a := range g.Atoms {
		fmt.Fprintf(&sb, "%d", i+1)
		if a.Label != "" {
			sb.WriteString(" " + a.Label)
		}
		sb.WriteString(" " + formatTypes(a.Types))
		if len(a.Radicals) > 0 {
			sb.WriteString(" u" + formatInts(a.Radicals))
		}
		if len(a.LonePairs) > 0 {
			sb.WriteString(" p" + formatInts(a.LonePairs))
		}
		if len(a.Charges) > 0 {
			sb.WriteString(" c" + formatInts(a.Charges))
		}
		if len(a.Ring) == 1 {
			if a.Ring[0] {
				sb.WriteString(" r1")
			} else {
				sb.WriteString(" r0")
			}
		}
		for _, n := range a.sortedNeighbors(pos) {
			sb.WriteString(fmt.Sprintf(" {%d,%s}", pos[n]+1, formatOrders(a.Bonds[n].Orders)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatTypes(types []AtomType) string {
	if len(types) == 1 {
		return string(types[0])
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatInts(vals []int) string {
	if len(vals) == 1 {
		return strconv.Itoa(vals[0])
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatOrders(orders []float64) string {
	if len(orders) == 1 {
		letter, err := orderLetter(orders[0])
		if err != nil {
			return "?"
		}
		return letter
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		letter, err := orderLetter(o)
		if err != nil {
			letter = "?"
		}
		parts[i] = letter
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// FromAdjacencyList parses text into a Graph.  pattern selects the target
// representation; a concrete parse additionally requires every dimension to
// be fully specified.
func FromAdjacencyList(text string, pattern bool) (*Graph, error) {
	g := NewGraph(pattern)
	type pendingBond struct {
		from   int
		to     int
		orders []float64
	}
	var bonds []pendingBond
	index := make(map[int]*Atom)

	lineNo := 0
	for _, raw := range strings.Split(text, "\n") {
		lineNo++
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "multiplicity") {
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return nil, adjErr(lineNo, "malformed multiplicity line")
			}
			m, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, adjErr(lineNo, "malformed multiplicity value")
			}
			g.Multiplicity = m
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, adjErr(lineNo, "atom line needs an index and a type")
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, adjErr(lineNo, "atom index is not a number")
		}
		atom := NewAtom()
		rest := fields[1:]
		if strings.HasPrefix(rest[0], "*") {
			atom.Label = rest[0]
			rest = rest[1:]
			if len(rest) == 0 {
				return nil, adjErr(lineNo, "atom line ends after label")
			}
		}
		if atom.Types, err = parseTypeToken(rest[0]); err != nil {
			return nil, adjErr(lineNo, err.Error())
		}
		rest = rest[1:]

		for _, tok := range rest {
			switch {
			case strings.HasPrefix(tok, "{"):
				m := bondToken.FindStringSubmatch(tok)
				if m == nil {
					return nil, adjErr(lineNo, "malformed bond token "+tok)
				}
				to, _ := strconv.Atoi(m[1])
				orders, err := parseOrderToken(m[2])
				if err != nil {
					return nil, adjErr(lineNo, err.Error())
				}
				bonds = append(bonds, pendingBond{from: idx, to: to, orders: orders})
			case strings.HasPrefix(tok, "u"):
				if atom.Radicals, err = parseIntToken(tok[1:]); err != nil {
					return nil, adjErr(lineNo, err.Error())
				}
			case strings.HasPrefix(tok, "p"):
				if atom.LonePairs, err = parseIntToken(tok[1:]); err != nil {
					return nil, adjErr(lineNo, err.Error())
				}
			case strings.HasPrefix(tok, "c"):
				if atom.Charges, err = parseIntToken(tok[1:]); err != nil {
					return nil, adjErr(lineNo, err.Error())
				}
			case tok == "r0":
				atom.Ring = []bool{false}
			case tok == "r1":
				atom.Ring = []bool{true}
			default:
				return nil, adjErr(lineNo, "unknown token "+tok)
			}
		}

		if !pattern {
			if len(atom.Radicals) == 0 {
				atom.Radicals = []int{0}
			}
			if len(atom.LonePairs) == 0 {
				atom.LonePairs = []int{0}
			}
			if len(atom.Charges) == 0 {
				atom.Charges = []int{0}
			}
			if !atom.IsConcrete() {
				return nil, adjErr(lineNo, "molecule atom is not fully specified")
			}
		}
		if _, dup := index[idx]; dup {
			return nil, adjErr(lineNo, "duplicate atom index")
		}
		index[idx] = atom
		g.AddAtom(atom)
	}

	if len(g.Atoms) == 0 {
		return nil, errors.New(errors.ErrCodeStructureInvalidAdjacency, "empty adjacency list")
	}

	// Bond tokens appear on both endpoint lines; keep one bond per pair and
	// require the orders to agree.
	type pair struct{ lo, hi int }
	seen := make(map[pair][]float64)
	for _, pb := range bonds {
		a1, ok1 := index[pb.from]
		a2, ok2 := index[pb.to]
		if !ok1 || !ok2 {
			return nil, errors.Newf(errors.ErrCodeStructureInvalidAdjacency,
				"bond references missing atom %d-%d", pb.from, pb.to)
		}
		key := pair{lo: pb.from, hi: pb.to}
		if key.lo > key.hi {
			key.lo, key.hi = key.hi, key.lo
		}
		if prev, ok := seen[key]; ok {
			if !ordersSubset(prev, pb.orders) || !ordersSubset(pb.orders, prev) {
				return nil, errors.Newf(errors.ErrCodeStructureInvalidAdjacency,
					"bond %d-%d declared with conflicting orders", key.lo, key.hi)
			}
			continue
		}
		seen[key] = pb.orders
		if err := g.AddBond(a1, a2, NewBond(pb.orders...)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// MustFromAdjacencyList is a test convenience that panics on parse errors.
func MustFromAdjacencyList(text string, pattern bool) *Graph {
	g, err := FromAdjacencyList(text, pattern)
	if err != nil {
		panic(err)
	}
	return g
}

func adjErr(line int, msg string) error {
	return errors.Newf(errors.ErrCodeStructureInvalidAdjacency, "line %d: %s", line, msg)
}

func parseTypeToken(tok string) ([]AtomType, error) {
	names := splitList(tok)
	out := make([]AtomType, 0, len(names))
	for _, n := range names {
		if !IsValidAtomType(n) {
			return nil, errors.New(errors.ErrCodeStructureInvalidAtomType, "unknown atom type "+n)
		}
		out = append(out, AtomType(n))
	}
	return out, nil
}

func parseIntToken(tok string) ([]int, error) {
	names := splitList(tok)
	out := make([]int, 0, len(names))
	for _, n := range names {
		v, err := strconv.Atoi(n)
		if err != nil {
			return nil, errors.New(errors.ErrCodeStructureInvalidAdjacency, "bad integer "+n)
		}
		out = append(out, v)
	}
	sort.Ints(out)
	return out, nil
}

func parseOrderToken(tok string) ([]float64, error) {
	names := splitList(tok)
	out := make([]float64, 0, len(names))
	for _, n := range names {
		o, err := parseOrderLetter(n)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func splitList(tok string) []string {
	if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") {
		inner := tok[1 : len(tok)-1]
		parts := strings.Split(inner, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return []string{tok}
}
