package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// Kinetics literals are single lines of space-separated key=value pairs
// after a form name, e.g.
//
//	Arrhenius A=1e+10 n=0 Ea=31000 T0=1
//	ArrheniusBM A=2.4e+08 n=1.5 w0=380000 E0=45000
//
// Floats print with strconv 'g' at full precision so values survive the
// round trip exactly.

func ffloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func formatArrhenius(a *kinetics.Arrhenius) string {
	return fmt.Sprintf("Arrhenius A=%s n=%s Ea=%s T0=%s",
		ffloat(a.A), ffloat(a.N), ffloat(a.Ea), ffloat(a.T0))
}

func formatArrheniusBM(b *kinetics.ArrheniusBM) string {
	return fmt.Sprintf("ArrheniusBM A=%s n=%s w0=%s E0=%s",
		ffloat(b.A), ffloat(b.N), ffloat(b.W0), ffloat(b.E0))
}

func formatUncertainty(u *kinetics.RateUncertainty) string {
	return fmt.Sprintf("mu=%s var=%s N=%d Tref=%s correlation=%s",
		ffloat(u.Mu), ffloat(u.Var), u.N, ffloat(u.Tref), u.Correlation)
}

// parseKV splits "k1=v1 k2=v2 ..." into a map.  Values cannot contain
// spaces; the only free-text field (correlation) is a tree label, which
// never does.
func parseKV(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, tok := range strings.Fields(s) {
		eq := strings.IndexByte(tok, '=')
		if eq < 1 {
			return nil, errors.New(errors.ErrCodeSerialization, "malformed key=value token "+tok)
		}
		out[tok[:eq]] = tok[eq+1:]
	}
	return out, nil
}

func kvFloat(kv map[string]string, key string) (float64, error) {
	raw, ok := kv[key]
	if !ok {
		return 0, errors.New(errors.ErrCodeSerialization, "missing kinetics field "+key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "bad float for "+key)
	}
	return v, nil
}

func parseArrhenius(line string) (*kinetics.Arrhenius, error) {
	rest, ok := strings.CutPrefix(line, "Arrhenius ")
	if !ok {
		return nil, errors.New(errors.ErrCodeSerialization, "expected Arrhenius literal, got "+line)
	}
	kv, err := parseKV(rest)
	if err != nil {
		return nil, err
	}
	a := &kinetics.Arrhenius{}
	if a.A, err = kvFloat(kv, "A"); err != nil {
		return nil, err
	}
	if a.N, err = kvFloat(kv, "n"); err != nil {
		return nil, err
	}
	if a.Ea, err = kvFloat(kv, "Ea"); err != nil {
		return nil, err
	}
	if a.T0, err = kvFloat(kv, "T0"); err != nil {
		return nil, err
	}
	return a, nil
}

func parseArrheniusBM(line string) (*kinetics.ArrheniusBM, error) {
	rest, ok := strings.CutPrefix(line, "ArrheniusBM ")
	if !ok {
		return nil, errors.New(errors.ErrCodeSerialization, "expected ArrheniusBM literal, got "+line)
	}
	kv, err := parseKV(rest)
	if err != nil {
		return nil, err
	}
	b := &kinetics.ArrheniusBM{}
	if b.A, err = kvFloat(kv, "A"); err != nil {
		return nil, err
	}
	if b.N, err = kvFloat(kv, "n"); err != nil {
		return nil, err
	}
	if b.W0, err = kvFloat(kv, "w0"); err != nil {
		return nil, err
	}
	if b.E0, err = kvFloat(kv, "E0"); err != nil {
		return nil, err
	}
	return b, nil
}

func parseUncertainty(line string) (*kinetics.RateUncertainty, error) {
	kv, err := parseKV(line)
	if err != nil {
		return nil, err
	}
	u := &kinetics.RateUncertainty{Correlation: kv["correlation"]}
	if u.Mu, err = kvFloat(kv, "mu"); err != nil {
		return nil, err
	}
	if u.Var, err = kvFloat(kv, "var"); err != nil {
		return nil, err
	}
	if u.Tref, err = kvFloat(kv, "Tref"); err != nil {
		return nil, err
	}
	rawN, ok := kv["N"]
	if !ok {
		return nil, errors.New(errors.ErrCodeSerialization, "missing uncertainty field N")
	}
	if u.N, err = strconv.Atoi(rawN); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bad count for N")
	}
	return u, nil
}

// escapeText folds a multi-line comment onto one line.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

func unescapeText(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
