package kinetics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/ReactKin/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Blowers-Masel
//
// The Blowers-Masel correlation predicts the activation energy of a reaction
// from its enthalpy, an intrinsic barrier E0 and the characteristic bond
// energy w0 of the bonds made and broken.  A single fitted ArrheniusBM covers
// a whole node of the template tree; ToArrhenius specializes it to one
// reaction's enthalpy.
// ─────────────────────────────────────────────────────────────────────────────

// ArrheniusBM is the Blowers-Masel rate expression.  A, N as Arrhenius; W0
// and E0 in J/mol.
type ArrheniusBM struct {
	A  float64
	N  float64
	W0 float64
	E0 float64

	Uncertainty *RateUncertainty
	Comment     string
}

// ActivationEnergy evaluates the Blowers-Masel barrier in J/mol at reaction
// enthalpy dHrxn.
func (b *ArrheniusBM) ActivationEnergy(dHrxn float64) float64 {
	w0, e0 := b.W0, b.E0
	if dHrxn < -4*e0 {
		return 0
	}
	if dHrxn > 4*e0 {
		return dHrxn
	}
	vp := 2 * w0 * (w0 + e0) / (w0 - e0)
	num := (w0 + dHrxn/2) * (vp - 2*w0 + dHrxn) * (vp - 2*w0 + dHrxn)
	den := vp*vp - 4*w0*w0 + dHrxn*dHrxn
	return num / den
}

// Rate evaluates the rate coefficient at T kelvin for enthalpy dHrxn J/mol.
func (b *ArrheniusBM) Rate(T, dHrxn float64) float64 {
	return b.A * math.Pow(T, b.N) * math.Exp(-b.ActivationEnergy(dHrxn)/(GasConstant*T))
}

// ToArrhenius fixes the enthalpy dependence into a plain Arrhenius form.
func (b *ArrheniusBM) ToArrhenius(dHrxn float64) *Arrhenius {
	return &Arrhenius{
		A:           b.A,
		N:           b.N,
		Ea:          b.ActivationEnergy(dHrxn),
		T0:          1,
		Uncertainty: b.Uncertainty,
		Comment:     b.Comment,
	}
}

// FitDatum is one training reaction for FitToReactions: its fitted Arrhenius
// expression and its reaction enthalpy at 298 K, J/mol.
type FitDatum struct {
	Kinetics *Arrhenius
	DHrxn    float64
}

// fitTemperatures samples the range rate rules are consumed over.
func fitTemperatures() []float64 {
	ts := make([]float64, 0, 24)
	for T := 300.0; T <= 2600; T += 100 {
		ts = append(ts, T)
	}
	return ts
}

// FitToReactions fits A, N and E0 to the given reactions by least squares,
// holding W0 fixed at w0 (J/mol, derived from the bond energies the recipe
// touches).  For a fixed E0 the model is linear in ln A and N, so the fit is
// a golden-section search over E0 with an inner linear regression of
//
//	ln k + Ea(E0, dHrxn)/(R·T)  against  ln T.
//
// The residual spread over the sample temperatures populates Uncertainty,
// with label naming the fitted tree node.
func FitToReactions(data []FitDatum, w0 float64, label string) (*ArrheniusBM, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeKineticsFitFailed, "no reactions to fit")
	}
	if w0 <= 0 {
		return nil, errors.Newf(errors.ErrCodeKineticsFitFailed, "non-positive w0 %g", w0)
	}

	ts := fitTemperatures()
	sse := func(e0 float64) (float64, *ArrheniusBM) {
		trial := &ArrheniusBM{W0: w0, E0: e0}
		xs := make([]float64, 0, len(data)*len(ts))
		ys := make([]float64, 0, len(data)*len(ts))
		for _, d := range data {
			ea := trial.ActivationEnergy(d.DHrxn)
			for _, T := range ts {
				k := d.Kinetics.Rate(T)
				if k <= 0 {
					continue
				}
				xs = append(xs, math.Log(T))
				ys = append(ys, math.Log(k)+ea/(GasConstant*T))
			}
		}
		if len(xs) < 2 {
			return math.Inf(1), nil
		}
		logA, n := stat.LinearRegression(xs, ys, nil, false)
		trial.A = math.Exp(logA)
		trial.N = n
		var s float64
		for i := range xs {
			r := ys[i] - (logA + n*xs[i])
			s += r * r
		}
		return s, trial
	}

	// E0 must stay below w0 for the correlation to be defined.
	const phi = 0.6180339887498949
	lo, hi := 0.0, 0.999*w0
	for iter := 0; iter < 60; iter++ {
		m1 := hi - phi*(hi-lo)
		m2 := lo + phi*(hi-lo)
		s1, _ := sse(m1)
		s2, _ := sse(m2)
		if s1 <= s2 {
			hi = m2
		} else {
			lo = m1
		}
	}
	best, fit := sse((lo + hi) / 2)
	if fit == nil || math.IsInf(best, 1) {
		return nil, errors.New(errors.ErrCodeKineticsFitFailed, "degenerate rate data")
	}

	// Residuals of ln k per reaction at the sample temperatures.
	var resid []float64
	for _, d := range data {
		arr := fit.ToArrhenius(d.DHrxn)
		for _, T := range ts {
			k := d.Kinetics.Rate(T)
			if k <= 0 {
				continue
			}
			resid = append(resid, math.Log(k)-math.Log(arr.Rate(T)))
		}
	}
	mu := stat.Mean(resid, nil)
	variance := 0.0
	if len(resid) > 1 {
		variance = stat.Variance(resid, nil)
	}
	fit.Uncertainty = &RateUncertainty{
		Mu:          mu,
		Var:         variance,
		N:           len(data),
		Tref:        1000,
		Correlation: label,
	}
	return fit, nil
}
