package recipe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/ReactKin/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Reaction recipes
//
// A recipe is an ordered list of graph-edit actions over the labeled reaction
// center of a merged reactant structure.  It is immutable once built; the
// reverse recipe is a pure structural transform of the action list.
// ─────────────────────────────────────────────────────────────────────────────

// ActionKind names the graph edits a recipe can perform.
type ActionKind string

const (
	ChangeBond  ActionKind = "CHANGE_BOND"
	FormBond    ActionKind = "FORM_BOND"
	BreakBond   ActionKind = "BREAK_BOND"
	GainRadical ActionKind = "GAIN_RADICAL"
	LoseRadical ActionKind = "LOSE_RADICAL"
	GainPair    ActionKind = "GAIN_PAIR"
	LosePair    ActionKind = "LOSE_PAIR"
)

// Action is one graph edit.  Bond kinds use Center1/Center2 and Order (the
// order delta for CHANGE_BOND, the formed order for FORM_BOND/BREAK_BOND);
// electron kinds use Center1 and Change.
type Action struct {
	Kind    ActionKind
	Center1 string
	Center2 string
	Order   float64
	Change  int
}

func (a Action) isBondAction() bool {
	return a.Kind == ChangeBond || a.Kind == FormBond || a.Kind == BreakBond
}

// reverse returns the action's inversion.
func (a Action) reverse() Action {
	r := a
	switch a.Kind {
	case ChangeBond:
		r.Order = -a.Order
	case FormBond:
		r.Kind = BreakBond
	case BreakBond:
		r.Kind = FormBond
	case GainRadical:
		r.Kind = LoseRadical
	case LoseRadical:
		r.Kind = GainRadical
	case GainPair:
		r.Kind = LosePair
	case LosePair:
		r.Kind = GainPair
	}
	return r
}

// Recipe is an immutable ordered action list.
type Recipe struct {
	actions []Action
}

// New validates the actions and builds a recipe.
func New(actions ...Action) (*Recipe, error) {
	for i, a := range actions {
		if err := validateAction(a); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRecipeInvalidAction,
				fmt.Sprintf("action %d", i+1))
		}
	}
	return &Recipe{actions: append([]Action(nil), actions...)}, nil
}

// MustNew panics on invalid actions; for fixed literals.
func MustNew(actions ...Action) *Recipe {
	r, err := New(actions...)
	if err != nil {
		panic(err)
	}
	return r
}

func validateAction(a Action) error {
	switch a.Kind {
	case ChangeBond:
		if a.Center1 == "" || a.Center2 == "" {
			return errors.InvalidAction("CHANGE_BOND needs two centers")
		}
		if a.Order == 0 {
			return errors.InvalidAction("CHANGE_BOND needs a nonzero order delta")
		}
	case FormBond, BreakBond:
		if a.Center1 == "" || a.Center2 == "" {
			return errors.InvalidAction(string(a.Kind) + " needs two centers")
		}
	case GainRadical, LoseRadical, GainPair, LosePair:
		if a.Center1 == "" {
			return errors.InvalidAction(string(a.Kind) + " needs a center")
		}
		if a.Change < 1 {
			return errors.InvalidAction(string(a.Kind) + " needs a positive change count")
		}
	default:
		return errors.New(errors.ErrCodeRecipeUnknownAction, "unknown action kind "+string(a.Kind))
	}
	return nil
}

// Actions returns a copy of the action list.
func (r *Recipe) Actions() []Action {
	return append([]Action(nil), r.actions...)
}

// Len is the number of actions.
func (r *Recipe) Len() int { return len(r.actions) }

// Reverse builds the inverse recipe: FORM and BREAK swap, CHANGE_BOND deltas
// negate, GAIN and LOSE swap.  Action order is preserved, so
// Reverse().Reverse() equals the original.
func (r *Recipe) Reverse() *Recipe {
	out := make([]Action, len(r.actions))
	for i, a := range r.actions {
		out[i] = a.reverse()
	}
	return &Recipe{actions: out}
}

// Equal reports action-list equality.
func (r *Recipe) Equal(other *Recipe) bool {
	if len(r.actions) != len(other.actions) {
		return false
	}
	for i := range r.actions {
		if r.actions[i] != other.actions[i] {
			return false
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Text form
// ─────────────────────────────────────────────────────────────────────────────

// String serializes one action per line, e.g.
//
//	CHANGE_BOND *1 -1 *2
//	FORM_BOND *3 S *1
//	GAIN_RADICAL *2 1
func (r *Recipe) String() string {
	var b strings.Builder
	for _, a := range r.actions {
		b.WriteString(FormatAction(a))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatAction renders a single action line.
func FormatAction(a Action) string {
	switch a.Kind {
	case ChangeBond:
		return fmt.Sprintf("%s %s %s %s", a.Kind, a.Center1,
			strconv.FormatFloat(a.Order, 'g', -1, 64), a.Center2)
	case FormBond, BreakBond:
		letter := "S"
		if a.Order == 0 {
			letter = "vdW"
		}
		return fmt.Sprintf("%s %s %s %s", a.Kind, a.Center1, letter, a.Center2)
	default:
		return fmt.Sprintf("%s %s %d", a.Kind, a.Center1, a.Change)
	}
}

// ParseAction parses one action line as produced by FormatAction.
func ParseAction(line string) (Action, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Action{}, errors.New(errors.ErrCodeRecipeInvalidAction, "malformed action line "+line)
	}
	kind := ActionKind(fields[0])
	switch kind {
	case ChangeBond:
		if len(fields) != 4 {
			return Action{}, errors.New(errors.ErrCodeRecipeInvalidAction, "malformed CHANGE_BOND line "+line)
		}
		delta, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Action{}, errors.New(errors.ErrCodeRecipeInvalidAction, "bad order delta in "+line)
		}
		return Action{Kind: kind, Center1: fields[1], Order: delta, Center2: fields[3]}, nil
	case FormBond, BreakBond:
		if len(fields) != 4 {
			return Action{}, errors.New(errors.ErrCodeRecipeInvalidAction, "malformed bond line "+line)
		}
		var order float64
		switch fields[2] {
		case "S":
			order = 1
		case "vdW":
			order = 0
		default:
			return Action{}, errors.New(errors.ErrCodeRecipeInvalidAction, "bad bond order in "+line)
		}
		return Action{Kind: kind, Center1: fields[1], Order: order, Center2: fields[3]}, nil
	case GainRadical, LoseRadical, GainPair, LosePair:
		if len(fields) != 3 {
			return Action{}, errors.New(errors.ErrCodeRecipeInvalidAction, "malformed electron line "+line)
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return Action{}, errors.New(errors.ErrCodeRecipeInvalidAction, "bad change count in "+line)
		}
		return Action{Kind: kind, Center1: fields[1], Change: n}, nil
	}
	return Action{}, errors.New(errors.ErrCodeRecipeUnknownAction, "unknown action kind "+fields[0])
}

// Parse reads a whole recipe, one action per non-empty line.
func Parse(text string) (*Recipe, error) {
	var actions []Action
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		a, err := ParseAction(line)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return New(actions...)
}
