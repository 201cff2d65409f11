package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/rules"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// Depository file: literal reactions with concrete structures.  Reactant and
// product blocks carry the species label on the opening line and an
// adjacency list in the body.

func formatDepository(d *rules.Depository) string {
	var b strings.Builder
	fmt.Fprintf(&b, "depository %s\n", d.Label)
	for _, e := range d.Entries() {
		b.WriteString("\nentry\n")
		fmt.Fprintf(&b, "\tindex %d\n", e.Index)
		if e.Label != "" {
			fmt.Fprintf(&b, "\tlabel %s\n", e.Label)
		}
		if e.Reaction != nil {
			if e.Reaction.Degeneracy != 1 {
				fmt.Fprintf(&b, "\tdegeneracy %s\n", ffloat(e.Reaction.Degeneracy))
			}
			if !e.Reaction.Reversible {
				b.WriteString("\tirreversible\n")
			}
			if e.Reaction.Duplicate {
				b.WriteString("\tduplicate\n")
			}
		}
		if e.Kinetics != nil {
			fmt.Fprintf(&b, "\tkinetics %s\n", formatArrhenius(e.Kinetics))
			if e.Kinetics.Uncertainty != nil {
				fmt.Fprintf(&b, "\tuncertainty %s\n", formatUncertainty(e.Kinetics.Uncertainty))
			}
		}
		if e.Rank != 0 {
			fmt.Fprintf(&b, "\trank %d\n", e.Rank)
		}
		if e.Comment != "" {
			fmt.Fprintf(&b, "\tcomment %s\n", escapeText(e.Comment))
		}
		if e.Reaction != nil {
			for _, sp := range e.Reaction.Reactants {
				writeSpecies(&b, "reactant", sp)
			}
			for _, sp := range e.Reaction.Products {
				writeSpecies(&b, "product", sp)
			}
		}
		b.WriteString("end\n")
	}
	return b.String()
}

func writeSpecies(b *strings.Builder, role string, sp *reaction.Species) {
	b.WriteString("\t" + role)
	if sp.Label != "" {
		b.WriteString(" " + sp.Label)
	}
	b.WriteString("\n")
	writeAdjacency(b, sp.Molecule, "\t\t")
	b.WriteString("\tend\n")
}

func parseDepository(familyLabel, name, text string) (*rules.Depository, error) {
	sc := newScanner(text)
	d := rules.NewDepository(name)
	for {
		line, ok := sc.next()
		if !ok {
			break
		}
		key, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch key {
		case "depository":
			if rest != name {
				return nil, errors.Newf(errors.ErrCodeSerialization,
					"file names depository %s, expected %s", rest, name)
			}
		case "entry":
			body, err := sc.block()
			if err != nil {
				return nil, err
			}
			e, err := parseDepositoryEntry(familyLabel, body)
			if err != nil {
				return nil, err
			}
			d.Add(e)
		default:
			return nil, errors.New(errors.ErrCodeSerialization, "unknown depository directive "+key)
		}
	}
	return d, nil
}

func parseDepositoryEntry(familyLabel string, body []string) (*rules.DepositoryEntry, error) {
	e := &rules.DepositoryEntry{}
	var (
		reactants    []*reaction.Species
		products     []*reaction.Species
		degeneracy   = 1.0
		irreversible bool
		duplicate    bool
	)
	for i := 0; i < len(body); i++ {
		line := strings.TrimSpace(body[i])
		if line == "" {
			continue
		}
		key, rest, _ := strings.Cut(line, " ")
		var err error
		switch key {
		case "index":
			if e.Index, err = strconv.Atoi(rest); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bad depository index")
			}
		case "label":
			e.Label = rest
		case "degeneracy":
			if degeneracy, err = strconv.ParseFloat(rest, 64); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bad degeneracy")
			}
		case "irreversible":
			irreversible = true
		case "duplicate":
			duplicate = true
		case "kinetics":
			if e.Kinetics, err = parseArrhenius(rest); err != nil {
				return nil, err
			}
		case "uncertainty":
			if e.Kinetics == nil {
				return nil, errors.New(errors.ErrCodeSerialization,
					"uncertainty line before kinetics in depository entry")
			}
			if e.Kinetics.Uncertainty, err = parseUncertainty(rest); err != nil {
				return nil, err
			}
		case "rank":
			if e.Rank, err = strconv.Atoi(rest); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bad depository rank")
			}
		case "comment":
			e.Comment = unescapeText(rest)
		case "reactant", "product":
			var adj []string
			for i++; i < len(body); i++ {
				if strings.TrimSpace(body[i]) == "end" {
					break
				}
				adj = append(adj, body[i])
			}
			sp, err := parseSpecies(rest, adj)
			if err != nil {
				return nil, err
			}
			if key == "reactant" {
				reactants = append(reactants, sp)
			} else {
				products = append(products, sp)
			}
		default:
			return nil, errors.New(errors.ErrCodeSerialization, "unknown depository field "+key)
		}
	}
	if len(reactants) == 0 {
		return nil, errors.New(errors.ErrCodeSerialization,
			"depository entry "+e.Label+" has no reactants")
	}
	rxn := reaction.NewReaction(reactants, products)
	rxn.Degeneracy = degeneracy
	rxn.Reversible = !irreversible
	rxn.Duplicate = duplicate
	rxn.Kinetics = e.Kinetics
	e.Reaction = &reaction.TemplateReaction{
		Reaction:  *rxn,
		Family:    familyLabel,
		IsForward: true,
	}
	return e, nil
}

func parseSpecies(label string, adj []string) (*reaction.Species, error) {
	trimmed := make([]string, 0, len(adj))
	for _, l := range adj {
		if t := strings.TrimSpace(l); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	g, err := molecule.FromAdjacencyList(strings.Join(trimmed, "\n"), false)
	if err != nil {
		return nil, err
	}
	return reaction.NewSpecies(g, label), nil
}

// SaveTrainingReactions appends reactions to a family's training depository,
// creating the file when absent.  New entries take the next free index and
// the default training rank.
func (s *Store) SaveTrainingReactions(familyLabel string, rxns []*reaction.TemplateReaction) error {
	d, err := s.LoadDepository(familyLabel, "training")
	if err != nil {
		return err
	}
	for _, rxn := range rxns {
		d.Add(&rules.DepositoryEntry{
			Label:    rxn.String(),
			Reaction: rxn,
			Kinetics: rxn.Kinetics,
			Rank:     3,
		})
	}
	return s.SaveDepository(familyLabel, d)
}
