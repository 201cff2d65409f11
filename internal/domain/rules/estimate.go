package rules

import (
	"fmt"

	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// EstimateKinetics resolves kinetics for a template position.  An exact rule
// wins and is returned alongside its entry; otherwise the search widens one
// generalization step at a time, replacing one slot with its parent per
// step, and averages every rule found at the first populated level.  The
// result is scaled by the reaction-path degeneracy.
func (t *Table) EstimateKinetics(arena *tree.Tree, template []string,
	degeneracy float64) (*kinetics.Arrhenius, *Entry, error) {
	origin := Key(template)

	level := [][]string{template}
	seen := map[string]bool{origin: true}
	for len(level) > 0 {
		var found []*Entry
		for _, tmpl := range level {
			if e := t.Get(tmpl); e != nil && e.Kinetics != nil {
				found = append(found, e)
			}
		}
		if len(found) == 1 && Key(found[0].Template) == origin {
			k := found[0].Kinetics.Copy()
			k.ChangeRate(degeneracy)
			k.Comment = fmt.Sprintf("exact rule [%s] in %s", origin, t.family)
			return k, found[0], nil
		}
		if len(found) > 0 {
			ks := make([]*kinetics.Arrhenius, len(found))
			for i, e := range found {
				ks[i] = e.Kinetics
			}
			avg, err := kinetics.AverageArrhenius(ks)
			if err != nil {
				return nil, nil, errors.Wrap(err, errors.ErrCodeKineticsFitFailed,
					"averaging rules for ["+origin+"]")
			}
			avg.ChangeRate(degeneracy)
			avg.Comment = fmt.Sprintf("estimated from %d rule(s) above [%s] in %s",
				len(found), origin, t.family)
			return avg, nil, nil
		}

		var next [][]string
		for _, tmpl := range level {
			for i, label := range tmpl {
				e, err := arena.Get(label)
				if err != nil || e.Parent == "" {
					continue
				}
				up := append([]string(nil), tmpl...)
				up[i] = e.Parent
				if key := Key(up); !seen[key] {
					seen[key] = true
					next = append(next, up)
				}
			}
		}
		level = next
	}

	return nil, nil, errors.New(errors.ErrCodeKineticsUndeterminable,
		fmt.Sprintf("no rule reachable above [%s] in family %s", origin, t.family))
}

// FillRulesByAveragingUp synthesizes a rule at every template position
// reachable one generalization below the root that lacks one, averaging the
// kinetics of its one-step specializations.  Fitted rules are never
// overwritten; new entries carry AveragedRank and full provenance.
func (t *Table) FillRulesByAveragingUp(arena *tree.Tree, root []string) error {
	done := make(map[string]*kinetics.Arrhenius)
	_, err := t.averageUp(arena, root, done)
	return err
}

func (t *Table) averageUp(arena *tree.Tree, template []string,
	done map[string]*kinetics.Arrhenius) (*kinetics.Arrhenius, error) {
	key := Key(template)
	if k, memo := done[key]; memo {
		return k, nil
	}

	slots := make([][]string, len(template))
	for i, label := range template {
		e, err := arena.Get(label)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFamilyInconsistent,
				"rule template names a missing tree entry")
		}
		slots[i] = append([]string{label}, e.Children...)
	}

	var ks []*kinetics.Arrhenius
	var prov []Provenance
	for _, combo := range crossLabels(slots) {
		comboKey := Key(combo)
		if comboKey == key {
			continue
		}
		k, err := t.averageUp(arena, combo, done)
		if err != nil {
			return nil, err
		}
		if k != nil {
			ks = append(ks, k)
			prov = append(prov, Provenance{Source: comboKey})
		}
	}

	if e := t.Get(template); e != nil && e.Kinetics != nil {
		done[key] = e.Kinetics
		return e.Kinetics, nil
	}
	if len(ks) == 0 {
		done[key] = nil
		return nil, nil
	}

	avg, err := kinetics.AverageArrhenius(ks)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeKineticsFitFailed,
			"averaging up to ["+key+"]")
	}
	for i := range prov {
		prov[i].Weight = 1 / float64(len(prov))
	}
	avg.Comment = fmt.Sprintf("average of %d specialization(s)", len(ks))
	entry := &Entry{
		Template:   append([]string(nil), template...),
		Kinetics:   avg,
		Rank:       AveragedRank,
		Provenance: prov,
	}
	if err := t.Add(entry); err != nil {
		return nil, err
	}
	done[key] = avg
	return avg, nil
}

// crossLabels enumerates one pick per slot, first slot varying slowest.
func crossLabels(slots [][]string) [][]string {
	out := [][]string{{}}
	for _, slot := range slots {
		var next [][]string
		for _, prefix := range out {
			for _, l := range slot {
				combo := make([]string, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, l))
			}
		}
		out = next
	}
	return out
}
