package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/ReactKin/internal/domain/rules"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// Rules file: a family line followed by one entry block per rule.  The rule
// label doubles as the semicolon-joined template, so the template is not
// stored separately.  Provenance lines carry the weight first; the rest of
// the line is the source label.

func formatRules(t *rules.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "family %s\n", t.Family())
	for _, e := range t.Entries() {
		b.WriteString("\nentry\n")
		fmt.Fprintf(&b, "\tindex %d\n", e.Index)
		fmt.Fprintf(&b, "\tlabel %s\n", e.Label)
		if e.Kinetics != nil {
			fmt.Fprintf(&b, "\tkinetics %s\n", formatArrhenius(e.Kinetics))
			if e.Kinetics.Uncertainty != nil {
				fmt.Fprintf(&b, "\tuncertainty %s\n", formatUncertainty(e.Kinetics.Uncertainty))
			}
		}
		if e.BM != nil {
			fmt.Fprintf(&b, "\tbm %s\n", formatArrheniusBM(e.BM))
			if e.BM.Uncertainty != nil {
				fmt.Fprintf(&b, "\tbmUncertainty %s\n", formatUncertainty(e.BM.Uncertainty))
			}
		}
		if e.Rank != 0 {
			fmt.Fprintf(&b, "\trank %d\n", e.Rank)
		}
		for _, p := range e.Provenance {
			fmt.Fprintf(&b, "\tprovenance %s %s\n", ffloat(p.Weight), p.Source)
		}
		if e.Comment != "" {
			fmt.Fprintf(&b, "\tcomment %s\n", escapeText(e.Comment))
		}
		b.WriteString("end\n")
	}
	return b.String()
}

func parseRules(label, text string) (*rules.Table, error) {
	sc := newScanner(text)
	t := rules.NewTable(label)
	for {
		line, ok := sc.next()
		if !ok {
			break
		}
		key, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch key {
		case "family":
			if rest != label {
				return nil, errors.Newf(errors.ErrCodeSerialization,
					"rules file names family %s, expected %s", rest, label)
			}
		case "entry":
			body, err := sc.block()
			if err != nil {
				return nil, err
			}
			e, err := parseRuleEntry(body)
			if err != nil {
				return nil, err
			}
			if err := t.Add(e); err != nil {
				return nil, err
			}
		default:
			return nil, errors.New(errors.ErrCodeSerialization, "unknown rules directive "+key)
		}
	}
	return t, nil
}

func parseRuleEntry(body []string) (*rules.Entry, error) {
	e := &rules.Entry{}
	for _, raw := range body {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		key, rest, _ := strings.Cut(line, " ")
		var err error
		switch key {
		case "index":
			if e.Index, err = strconv.Atoi(rest); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bad rule index")
			}
		case "label":
			e.Label = rest
			e.Template = strings.Split(rest, ";")
		case "kinetics":
			if e.Kinetics, err = parseArrhenius(rest); err != nil {
				return nil, err
			}
		case "uncertainty":
			if e.Kinetics == nil {
				return nil, errors.New(errors.ErrCodeSerialization,
					"uncertainty line before kinetics in rule "+e.Label)
			}
			if e.Kinetics.Uncertainty, err = parseUncertainty(rest); err != nil {
				return nil, err
			}
		case "bm":
			if e.BM, err = parseArrheniusBM(rest); err != nil {
				return nil, err
			}
		case "bmUncertainty":
			if e.BM == nil {
				return nil, errors.New(errors.ErrCodeSerialization,
					"bmUncertainty line before bm in rule "+e.Label)
			}
			if e.BM.Uncertainty, err = parseUncertainty(rest); err != nil {
				return nil, err
			}
		case "rank":
			if e.Rank, err = strconv.Atoi(rest); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bad rule rank")
			}
		case "provenance":
			weightRaw, source, ok := strings.Cut(rest, " ")
			if !ok {
				return nil, errors.New(errors.ErrCodeSerialization, "malformed provenance line")
			}
			w, err := strconv.ParseFloat(weightRaw, 64)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bad provenance weight")
			}
			e.Provenance = append(e.Provenance, rules.Provenance{Source: source, Weight: w})
		case "comment":
			e.Comment = unescapeText(rest)
		default:
			return nil, errors.New(errors.ErrCodeSerialization, "unknown rule field "+key)
		}
	}
	if e.Label == "" {
		return nil, errors.New(errors.ErrCodeSerialization, "rule block has no label")
	}
	return e, nil
}
