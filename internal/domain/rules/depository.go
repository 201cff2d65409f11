package rules

import (
	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
)

// DepositoryEntry is one literal reference reaction with its measured or
// assigned kinetics.
type DepositoryEntry struct {
	Index    int
	Label    string
	Reaction *reaction.TemplateReaction
	Kinetics *kinetics.Arrhenius
	Rank     int
	Comment  string
}

// Depository is a non-generalized collection of reference reactions, most
// importantly the family's training set.  Unlike rules, entries are matched
// by isomorphism against whole reactions.
type Depository struct {
	Label   string
	entries []*DepositoryEntry
	next    int
}

// NewDepository returns an empty depository.
func NewDepository(label string) *Depository {
	return &Depository{Label: label}
}

// Add appends an entry, assigning the next index when it carries none.
func (d *Depository) Add(e *DepositoryEntry) {
	if e.Index == 0 {
		d.next++
		e.Index = d.next
	} else if e.Index > d.next {
		d.next = e.Index
	}
	d.entries = append(d.entries, e)
}

// Entries returns the entries in insertion order.
func (d *Depository) Entries() []*DepositoryEntry { return d.entries }

// Len is the number of entries.
func (d *Depository) Len() int { return len(d.entries) }

// DepositoryMatch is one literal hit for a queried reaction.
type DepositoryMatch struct {
	Entry    *DepositoryEntry
	Kinetics *kinetics.Arrhenius

	// Forward is false when the entry matched the query with reactant and
	// product sides swapped.
	Forward bool
}

// Match returns every entry isomorphic to the queried reaction, in either
// direction.
func (d *Depository) Match(rxn *reaction.Reaction) []*DepositoryMatch {
	var out []*DepositoryMatch
	for _, e := range d.entries {
		if e.Reaction == nil || !e.Reaction.IsIsomorphic(rxn, true) {
			continue
		}
		m := &DepositoryMatch{
			Entry:   e,
			Forward: e.Reaction.IsIsomorphic(rxn, false),
		}
		if e.Kinetics != nil {
			m.Kinetics = e.Kinetics.Copy()
		}
		out = append(out, m)
	}
	return out
}
