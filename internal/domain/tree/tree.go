package tree

import (
	"fmt"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Template tree
//
// The tree is an arena: entries live in a label-keyed map and refer to each
// other by label, never by pointer.  That keeps removal, reparenting and
// merge-after-parallel-growth cheap and makes cycles impossible to express
// accidentally.  Labels are unique by construction.
// ─────────────────────────────────────────────────────────────────────────────

// Entry is one tree node: either a structural Group pattern or a LogicOr
// union of other entries' labels.
type Entry struct {
	// Index is the formal node number; -1 marks an informal helper entry
	// (product-template children before renumbering).
	Index int

	// Label uniquely names the entry within its tree.
	Label string

	// Group is the structural pattern; nil when the entry is a LogicOr.
	Group *molecule.Graph

	// LogicOr lists the labels whose union this entry stands for.
	LogicOr []string

	// Parent is the parent entry's label, empty for a top-level entry.
	Parent string

	// Children lists child labels in insertion order.
	Children []string

	// NodalDistance weighs this entry's edge during tree-distance estimates.
	NodalDistance float64

	// Comment carries free-form provenance from the database file.
	Comment string
}

// IsLogicOr reports whether the entry delegates to a union of other entries.
func (e *Entry) IsLogicOr() bool { return len(e.LogicOr) > 0 }

// Tree is the arena of entries.
type Tree struct {
	entries map[string]*Entry
	order   []string // insertion order, for deterministic iteration
	top     []string
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{entries: make(map[string]*Entry)}
}

// Get returns the entry with the given label.
func (t *Tree) Get(label string) (*Entry, error) {
	e, ok := t.entries[label]
	if !ok {
		return nil, errors.New(errors.ErrCodeEntryNotFound, "no tree entry "+label)
	}
	return e, nil
}

// Has reports whether label names an entry.
func (t *Tree) Has(label string) bool {
	_, ok := t.entries[label]
	return ok
}

// Len is the number of entries.
func (t *Tree) Len() int { return len(t.entries) }

// Top returns the top-level entries in insertion order.
func (t *Tree) Top() []*Entry {
	out := make([]*Entry, 0, len(t.top))
	for _, l := range t.top {
		out = append(out, t.entries[l])
	}
	return out
}

// Entries iterates all entries in insertion order.
func (t *Tree) Entries() []*Entry {
	out := make([]*Entry, 0, len(t.order))
	for _, l := range t.order {
		if e, ok := t.entries[l]; ok {
			out = append(out, e)
		}
	}
	return out
}

// AddEntry places e in the arena under its Parent label (empty Parent makes
// it a top entry).  The label must be new and the parent, if named, present.
func (t *Tree) AddEntry(e *Entry) error {
	if e.Label == "" {
		return errors.New(errors.ErrCodeEntryDuplicateLabel, "entry needs a label")
	}
	if _, dup := t.entries[e.Label]; dup {
		return errors.New(errors.ErrCodeEntryDuplicateLabel, "duplicate tree entry "+e.Label)
	}
	if e.Parent != "" {
		p, ok := t.entries[e.Parent]
		if !ok {
			return errors.Newf(errors.ErrCodeTreeParentMismatch,
				"entry %s names missing parent %s", e.Label, e.Parent)
		}
		p.Children = append(p.Children, e.Label)
	} else {
		t.top = append(t.top, e.Label)
	}
	t.entries[e.Label] = e
	t.order = append(t.order, e.Label)
	return nil
}

// RemoveEntry detaches one entry and promotes its children to its parent
// (or to the top when the entry was top-level).
func (t *Tree) RemoveEntry(label string) error {
	e, ok := t.entries[label]
	if !ok {
		return errors.New(errors.ErrCodeEntryNotFound, "no tree entry "+label)
	}
	for _, c := range e.Children {
		child := t.entries[c]
		child.Parent = e.Parent
		if e.Parent != "" {
			t.entries[e.Parent].Children = append(t.entries[e.Parent].Children, c)
		} else {
			t.top = append(t.top, c)
		}
	}
	t.detach(e)
	return nil
}

// RemoveSubtree deletes an entry and every descendant.
func (t *Tree) RemoveSubtree(label string) error {
	e, ok := t.entries[label]
	if !ok {
		return errors.New(errors.ErrCodeEntryNotFound, "no tree entry "+label)
	}
	for _, d := range t.Descendants(label) {
		delete(t.entries, d.Label)
	}
	t.detach(e)
	return nil
}

// detach removes e itself from the arena and from its parent's child list.
func (t *Tree) detach(e *Entry) {
	if e.Parent != "" {
		p := t.entries[e.Parent]
		p.Children = removeLabel(p.Children, e.Label)
	} else {
		t.top = removeLabel(t.top, e.Label)
	}
	delete(t.entries, e.Label)
}

func removeLabel(labels []string, label string) []string {
	out := labels[:0]
	for _, l := range labels {
		if l != label {
			out = append(out, l)
		}
	}
	return out
}

// Descendants returns every entry below label, depth-first in child order.
func (t *Tree) Descendants(label string) []*Entry {
	e, ok := t.entries[label]
	if !ok {
		return nil
	}
	var out []*Entry
	var walk func(*Entry)
	walk = func(n *Entry) {
		for _, c := range n.Children {
			if child, ok := t.entries[c]; ok {
				out = append(out, child)
				walk(child)
			}
		}
	}
	walk(e)
	return out
}

// Ancestors returns the chain of parents from label up to its root.
func (t *Tree) Ancestors(label string) []*Entry {
	var out []*Entry
	e, ok := t.entries[label]
	for ok && e.Parent != "" {
		e, ok = t.entries[e.Parent]
		if ok {
			out = append(out, e)
		}
	}
	return out
}

// RootOf returns the top-level ancestor of label.
func (t *Tree) RootOf(label string) (*Entry, error) {
	e, ok := t.entries[label]
	if !ok {
		return nil, errors.New(errors.ErrCodeEntryNotFound, "no tree entry "+label)
	}
	for e.Parent != "" {
		p, ok := t.entries[e.Parent]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeTreeParentMismatch,
				"entry %s names missing parent %s", e.Label, e.Parent)
		}
		e = p
	}
	return e, nil
}

// RenumberIndices assigns sequential formal indices in depth-first order
// from the top entries.
func (t *Tree) RenumberIndices() {
	i := 0
	var walk func(string)
	walk = func(label string) {
		e := t.entries[label]
		e.Index = i
		i++
		for _, c := range e.Children {
			if t.Has(c) {
				walk(c)
			}
		}
	}
	for _, l := range t.top {
		walk(l)
	}
}

// EntryMatches reports whether the structure matches the entry: subgraph
// isomorphism against a Group, or any referenced alternative for a LogicOr.
// With resonance, every resonance form of the structure is tried.
func (t *Tree) EntryMatches(g *molecule.Graph, e *Entry, resonance bool) bool {
	if e.IsLogicOr() {
		for _, alt := range e.LogicOr {
			if child, ok := t.entries[alt]; ok && t.EntryMatches(g, child, resonance) {
				return true
			}
		}
		return false
	}
	if e.Group == nil {
		return false
	}
	forms := []*molecule.Graph{g}
	if resonance {
		forms = g.ResonanceStructures()
	}
	for _, f := range forms {
		if f.IsSubgraphIsomorphic(e.Group, nil) {
			return true
		}
	}
	return false
}

// CheckConsistency verifies the structural invariants: every child Group is
// contained in its parent's pattern, LogicOr members exist, and every entry
// reaches a top entry.  Violations carry the offending adjacency lists.
func (t *Tree) CheckConsistency() error {
	for _, e := range t.Entries() {
		if _, err := t.RootOf(e.Label); err != nil {
			return err
		}
		if e.IsLogicOr() {
			for _, alt := range e.LogicOr {
				if !t.Has(alt) {
					return errors.DatabaseConsistency(fmt.Sprintf(
						"entry %s references missing alternative %s", e.Label, alt))
				}
			}
			continue
		}
		if e.Group == nil {
			return errors.DatabaseConsistency("entry " + e.Label + " has neither group nor logic")
		}
		if e.Parent == "" {
			continue
		}
		parent := t.entries[e.Parent]
		if parent.IsLogicOr() {
			if !containsLabel(parent.LogicOr, e.Label) {
				return errors.DatabaseConsistency(fmt.Sprintf(
					"entry %s hangs under logic entry %s without being one of its alternatives",
					e.Label, parent.Label))
			}
			continue
		}
		if parent.Group == nil {
			return errors.DatabaseConsistency("entry " + parent.Label + " has neither group nor logic")
		}
		if !e.Group.IsSubgraphIsomorphic(parent.Group, nil) {
			return errors.DatabaseConsistency(fmt.Sprintf(
				"entry %s is not contained in its parent %s", e.Label, parent.Label)).
				WithDetail(fmt.Sprintf("child:\n%s\nparent:\n%s",
					e.Group.ToAdjacencyList(), parent.Group.ToAdjacencyList()))
		}
	}
	return nil
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
