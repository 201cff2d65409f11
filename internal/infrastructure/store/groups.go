package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/ReactKin/internal/domain/family"
	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/recipe"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Groups file
//
// Header lines, then block sections each closed by "end":
//
//	family H_Abstraction
//	template reactants=[X_H;Y_rad] products=[X_rad;Y_H]
//	ownReverse true
//	reversible true
//
//	recipe
//		BREAK_BOND *1 S *2
//	end
//
//	entry
//		index 0
//		label X_H
//		group
//			1 *1 R!H u0 {2,S}
//			2 *2 H u0 {1,S}
//		end
//	end
//
//	tree
//		X_H
//			X_H_1C
//	end
//
// The tree block nests children one tab deeper than their parent and is the
// single source of parent/child structure; entry blocks carry everything
// else.
// ─────────────────────────────────────────────────────────────────────────────

func formatGroups(f *family.KineticsFamily) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "family %s\n", f.Label)
	fmt.Fprintf(&b, "template reactants=[%s] products=[%s]\n",
		strings.Join(f.ForwardTemplate.Reactants, ";"),
		strings.Join(f.ForwardTemplate.Products, ";"))
	fmt.Fprintf(&b, "ownReverse %t\n", f.OwnReverse)
	fmt.Fprintf(&b, "reversible %t\n", f.Reversible)
	if f.BoundaryAtoms != "" {
		fmt.Fprintf(&b, "boundaryAtoms %s\n", f.BoundaryAtoms)
	}
	names := make([]string, 0, len(f.TreeDistances))
	for name := range f.TreeDistances {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "treeDistance %s %s\n", name, ffloat(f.TreeDistances[name]))
	}

	b.WriteString("\nrecipe\n")
	for _, line := range strings.Split(strings.TrimRight(f.ForwardRecipe.String(), "\n"), "\n") {
		b.WriteString("\t" + line + "\n")
	}
	b.WriteString("end\n")

	for _, e := range f.Groups.Entries() {
		b.WriteString("\nentry\n")
		fmt.Fprintf(&b, "\tindex %d\n", e.Index)
		fmt.Fprintf(&b, "\tlabel %s\n", e.Label)
		if e.NodalDistance != 0 {
			fmt.Fprintf(&b, "\tdistance %s\n", ffloat(e.NodalDistance))
		}
		if e.Comment != "" {
			fmt.Fprintf(&b, "\tcomment %s\n", escapeText(e.Comment))
		}
		switch {
		case e.IsLogicOr():
			fmt.Fprintf(&b, "\tor %s\n", strings.Join(e.LogicOr, " "))
		case e.Group != nil:
			b.WriteString("\tgroup\n")
			writeAdjacency(&b, e.Group, "\t\t")
			b.WriteString("\tend\n")
		default:
			return "", errors.New(errors.ErrCodeSerialization,
				"entry "+e.Label+" has neither group nor union")
		}
		b.WriteString("end\n")
	}

	b.WriteString("\ntree\n")
	for _, top := range f.Groups.Top() {
		if err := writeTreeBranch(&b, f.Groups, top.Label, 1); err != nil {
			return "", err
		}
	}
	b.WriteString("end\n")

	for _, g := range f.Forbidden {
		b.WriteString("\nforbidden\n")
		writeAdjacency(&b, g, "\t")
		b.WriteString("end\n")
	}
	return b.String(), nil
}

func writeAdjacency(b *strings.Builder, g *molecule.Graph, indent string) {
	for _, line := range strings.Split(strings.TrimRight(g.ToAdjacencyList(), "\n"), "\n") {
		b.WriteString(indent + line + "\n")
	}
}

func writeTreeBranch(b *strings.Builder, t *tree.Tree, label string, depth int) error {
	e, err := t.Get(label)
	if err != nil {
		return err
	}
	b.WriteString(strings.Repeat("\t", depth) + label + "\n")
	for _, child := range e.Children {
		if err := writeTreeBranch(b, t, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// groupScanner walks the file line by line.
type groupScanner struct {
	lines []string
	pos   int
}

func newScanner(text string) *groupScanner {
	return &groupScanner{lines: strings.Split(text, "\n")}
}

func (s *groupScanner) next() (string, bool) {
	for s.pos < len(s.lines) {
		line := s.lines[s.pos]
		s.pos++
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line, true
	}
	return "", false
}

// block collects raw lines until an unindented "end".
func (s *groupScanner) block() ([]string, error) {
	var out []string
	for s.pos < len(s.lines) {
		line := s.lines[s.pos]
		s.pos++
		if strings.TrimSpace(line) == "end" && !strings.HasPrefix(line, "\t") {
			return out, nil
		}
		out = append(out, line)
	}
	return nil, errors.New(errors.ErrCodeSerialization, "unterminated block")
}

func parseGroups(label, text string, opts ...family.Option) (*family.KineticsFamily, error) {
	sc := newScanner(text)

	var (
		fileLabel  string
		reactants  []string
		products   []string
		ownReverse bool
		reversible = true
		boundary   string
		distances  map[string]float64
		rcp        *recipe.Recipe
		entries    []*tree.Entry
		treeLines  []string
		forbidden  []*molecule.Graph
	)

	for {
		line, ok := sc.next()
		if !ok {
			break
		}
		key, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch key {
		case "family":
			fileLabel = rest
		case "template":
			var err error
			reactants, products, err = parseTemplateLine(rest)
			if err != nil {
				return nil, err
			}
		case "ownReverse":
			ownReverse = rest == "true"
		case "reversible":
			reversible = rest == "true"
		case "boundaryAtoms":
			boundary = rest
		case "treeDistance":
			name, val, ok := strings.Cut(rest, " ")
			if !ok {
				return nil, errors.New(errors.ErrCodeSerialization, "malformed treeDistance line")
			}
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bad tree distance")
			}
			if distances == nil {
				distances = make(map[string]float64)
			}
			distances[name] = v
		case "recipe":
			body, err := sc.block()
			if err != nil {
				return nil, err
			}
			rcp, err = recipe.Parse(strings.Join(body, "\n"))
			if err != nil {
				return nil, err
			}
		case "entry":
			body, err := sc.block()
			if err != nil {
				return nil, err
			}
			e, err := parseGroupEntry(body)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		case "tree":
			body, err := sc.block()
			if err != nil {
				return nil, err
			}
			treeLines = body
		case "forbidden":
			body, err := sc.block()
			if err != nil {
				return nil, err
			}
			g, err := parsePattern(body)
			if err != nil {
				return nil, err
			}
			forbidden = append(forbidden, g)
		default:
			return nil, errors.New(errors.ErrCodeSerialization, "unknown groups directive "+key)
		}
	}

	if fileLabel != "" && fileLabel != label {
		return nil, errors.Newf(errors.ErrCodeSerialization,
			"groups file names family %s, expected %s", fileLabel, label)
	}
	if rcp == nil {
		return nil, errors.New(errors.ErrCodeSerialization, "groups file has no recipe")
	}

	arena, err := assembleTree(entries, treeLines)
	if err != nil {
		return nil, err
	}

	f := family.New(label,
		family.Template{Reactants: reactants, Products: products}, rcp, arena, opts...)
	f.OwnReverse = ownReverse
	f.Reversible = reversible
	f.BoundaryAtoms = boundary
	f.TreeDistances = distances
	f.Forbidden = forbidden
	return f, nil
}

func parseTemplateLine(rest string) (reactants, products []string, err error) {
	fields := strings.Fields(rest)
	for _, fld := range fields {
		switch {
		case strings.HasPrefix(fld, "reactants=["):
			reactants = splitSlots(fld[len("reactants=[") : len(fld)-1])
		case strings.HasPrefix(fld, "products=["):
			products = splitSlots(fld[len("products=[") : len(fld)-1])
		default:
			return nil, nil, errors.New(errors.ErrCodeSerialization, "malformed template field "+fld)
		}
	}
	return reactants, products, nil
}

func splitSlots(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ";")
}

func parseGroupEntry(body []string) (*tree.Entry, error) {
	e := &tree.Entry{Index: -1}
	for i := 0; i < len(body); i++ {
		line := strings.TrimSpace(body[i])
		if line == "" {
			continue
		}
		key, rest, _ := strings.Cut(line, " ")
		switch key {
		case "index":
			n, err := strconv.Atoi(rest)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bad entry index")
			}
			e.Index = n
		case "label":
			e.Label = rest
		case "distance":
			v, err := strconv.ParseFloat(rest, 64)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bad nodal distance")
			}
			e.NodalDistance = v
		case "comment":
			e.Comment = unescapeText(rest)
		case "or":
			e.LogicOr = strings.Fields(rest)
		case "group":
			var adj []string
			for i++; i < len(body); i++ {
				if strings.TrimSpace(body[i]) == "end" {
					break
				}
				adj = append(adj, body[i])
			}
			g, err := parsePattern(adj)
			if err != nil {
				return nil, err
			}
			e.Group = g
		default:
			return nil, errors.New(errors.ErrCodeSerialization, "unknown entry field "+key)
		}
	}
	if e.Label == "" {
		return nil, errors.New(errors.ErrCodeSerialization, "entry block has no label")
	}
	return e, nil
}

func parsePattern(lines []string) (*molecule.Graph, error) {
	trimmed := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	return molecule.FromAdjacencyList(strings.Join(trimmed, "\n"), true)
}

// assembleTree wires the flat entry list using the tree block's nesting.
// Entries missing from the block become additional tops.
func assembleTree(entries []*tree.Entry, treeLines []string) (*tree.Tree, error) {
	byLabel := make(map[string]*tree.Entry, len(entries))
	for _, e := range entries {
		if byLabel[e.Label] != nil {
			return nil, errors.New(errors.ErrCodeEntryDuplicateLabel,
				"duplicate entry "+e.Label+" in groups file")
		}
		byLabel[e.Label] = e
	}

	arena := tree.New()
	stack := make([]string, 0, 8) // labels by depth, stack[d] = ancestor at depth d
	placed := make(map[string]bool, len(entries))
	for _, raw := range treeLines {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		depth := 0
		for depth < len(raw) && raw[depth] == '\t' {
			depth++
		}
		label := strings.TrimSpace(raw)
		e := byLabel[label]
		if e == nil {
			return nil, errors.New(errors.ErrCodeEntryNotFound,
				"tree names undeclared entry "+label)
		}
		if depth < 1 || depth > len(stack)+1 {
			return nil, errors.New(errors.ErrCodeSerialization,
				"bad tree nesting at "+label)
		}
		stack = stack[:depth-1]
		if depth == 1 {
			e.Parent = ""
		} else {
			e.Parent = stack[len(stack)-1]
		}
		e.Children = nil
		if err := arena.AddEntry(e); err != nil {
			return nil, err
		}
		stack = append(stack, label)
		placed[label] = true
	}
	for _, e := range entries {
		if placed[e.Label] {
			continue
		}
		e.Parent = ""
		e.Children = nil
		if err := arena.AddEntry(e); err != nil {
			return nil, err
		}
	}
	return arena, nil
}
