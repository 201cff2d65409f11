package rules

import (
	"fmt"
	"strings"

	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Rate rules
//
// A rule binds kinetics to one template position, keyed by the
// semicolon-joined node labels.  Averaged rules record where their numbers
// came from as explicit provenance instead of free-text comments, so
// averaging chains stay machine-readable.
// ─────────────────────────────────────────────────────────────────────────────

// AveragedRank marks rules synthesized by averaging-up rather than fitted or
// measured; it sorts after every curated rank.
const AveragedRank = 11

// Provenance names one source a rule's kinetics were derived from and its
// weight in the combination.
type Provenance struct {
	Source string
	Weight float64
}

// Entry is one rate rule.
type Entry struct {
	// Index orders entries within a table; assigned on Add when zero.
	Index int

	// Label is the semicolon-joined template node labels.
	Label string

	// Template lists the node labels individually, reactant order.
	Template []string

	// Kinetics is the modified Arrhenius form used for estimation.
	Kinetics *kinetics.Arrhenius

	// BM carries the fitted Blowers-Masel form when the rule was built by
	// tree generation; Kinetics stays authoritative for plain estimation.
	BM *kinetics.ArrheniusBM

	// Rank grades the data quality, 1 best; AveragedRank for synthesized
	// rules; 0 means unranked.
	Rank int

	// Provenance is required for every synthesized rule.
	Provenance []Provenance

	Comment string
}

// Key joins template node labels into the table key.
func Key(labels []string) string { return strings.Join(labels, ";") }

// Table is a family's rate-rule collection.
type Table struct {
	family  string
	entries map[string]*Entry
	order   []string
	next    int
}

// NewTable returns an empty rule table for the named family.
func NewTable(family string) *Table {
	return &Table{family: family, entries: make(map[string]*Entry)}
}

// Family returns the owning family label.
func (t *Table) Family() string { return t.family }

// Len is the number of rules.
func (t *Table) Len() int { return len(t.entries) }

// Add inserts a rule, assigning the next index when the entry carries none.
// A second rule for the same template position is a conflict.
func (t *Table) Add(e *Entry) error {
	if len(e.Template) == 0 {
		return errors.New(errors.ErrCodeValidation, "rule entry needs a template")
	}
	key := Key(e.Template)
	if e.Label == "" {
		e.Label = key
	}
	if _, dup := t.entries[key]; dup {
		return errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("rule for [%s] already exists in family %s", key, t.family))
	}
	if e.Index == 0 {
		t.next++
		e.Index = t.next
	} else if e.Index > t.next {
		t.next = e.Index
	}
	t.entries[key] = e
	t.order = append(t.order, key)
	return nil
}

// Get returns the rule at the exact template position, nil when absent.
func (t *Table) Get(labels []string) *Entry {
	return t.entries[Key(labels)]
}

// Remove deletes the rule at the template position.
func (t *Table) Remove(labels []string) {
	key := Key(labels)
	if _, ok := t.entries[key]; !ok {
		return
	}
	delete(t.entries, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Entries iterates rules in insertion order.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.entries[k])
	}
	return out
}

// Validate checks the provenance discipline: every synthesized rule must
// name its sources.
func (t *Table) Validate() error {
	for _, e := range t.Entries() {
		if e.Rank == AveragedRank && len(e.Provenance) == 0 {
			return errors.New(errors.ErrCodeRuleMissingProvenance,
				fmt.Sprintf("averaged rule [%s] in family %s has no provenance", e.Label, t.family))
		}
	}
	return nil
}
