package kinetics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/ReactKin/pkg/errors"
)

// GasConstant is the molar gas constant in J/(mol·K).
const GasConstant = 8.314462618

// Arrhenius is the modified Arrhenius expression
//
//	k(T) = A · (T/T0)^n · exp(-Ea / (R·T))
//
// with A in the units of the rate coefficient, Ea in J/mol and T0 in K
// (zero means 1 K).
type Arrhenius struct {
	A  float64
	N  float64
	Ea float64
	T0 float64

	Uncertainty *RateUncertainty
	Comment     string
}

// Rate evaluates the rate coefficient at T kelvin.
func (a *Arrhenius) Rate(T float64) float64 {
	t0 := a.T0
	if t0 == 0 {
		t0 = 1
	}
	return a.A * math.Pow(T/t0, a.N) * math.Exp(-a.Ea/(GasConstant*T))
}

// ChangeRate scales the pre-exponential factor.
func (a *Arrhenius) ChangeRate(factor float64) {
	a.A *= factor
}

// Copy returns an independent clone.
func (a *Arrhenius) Copy() *Arrhenius {
	c := *a
	if a.Uncertainty != nil {
		u := *a.Uncertainty
		c.Uncertainty = &u
	}
	return &c
}

// AverageArrhenius combines rate expressions by the geometric mean of A and
// the arithmetic means of n and Ea, the standard averaging-up rule for rate
// rules.  All inputs must share T0.
func AverageArrhenius(ks []*Arrhenius) (*Arrhenius, error) {
	if len(ks) == 0 {
		return nil, errors.New(errors.ErrCodeKineticsFitFailed, "no rate expressions to average")
	}
	logA := make([]float64, len(ks))
	n := make([]float64, len(ks))
	ea := make([]float64, len(ks))
	for i, k := range ks {
		if k.A <= 0 {
			return nil, errors.Newf(errors.ErrCodeKineticsFitFailed,
				"cannot average non-positive pre-exponential factor %g", k.A)
		}
		logA[i] = math.Log(k.A)
		n[i] = k.N
		ea[i] = k.Ea
	}
	return &Arrhenius{
		A:  math.Exp(stat.Mean(logA, nil)),
		N:  stat.Mean(n, nil),
		Ea: stat.Mean(ea, nil),
		T0: ks[0].T0,
	}, nil
}

// ArrheniusEP is the Evans-Polanyi form: the activation energy is a linear
// function of the reaction enthalpy, Ea = E0 + alpha·dHrxn, floored at zero
// (and at dHrxn for endothermic reactions with Ea below it).
type ArrheniusEP struct {
	A     float64
	N     float64
	Alpha float64
	E0    float64

	Comment string
}

// ActivationEnergy evaluates Ea in J/mol for a reaction enthalpy dHrxn.
func (a *ArrheniusEP) ActivationEnergy(dHrxn float64) float64 {
	ea := a.E0 + a.Alpha*dHrxn
	if dHrxn > 0 && ea < dHrxn {
		ea = dHrxn
	}
	if ea < 0 {
		ea = 0
	}
	return ea
}

// Rate evaluates the rate coefficient at T kelvin for a reaction enthalpy
// dHrxn J/mol.
func (a *ArrheniusEP) Rate(T, dHrxn float64) float64 {
	return a.A * math.Pow(T, a.N) * math.Exp(-a.ActivationEnergy(dHrxn)/(GasConstant*T))
}

// ToArrhenius fixes the enthalpy dependence into a plain Arrhenius form.
func (a *ArrheniusEP) ToArrhenius(dHrxn float64) *Arrhenius {
	return &Arrhenius{
		A:       a.A,
		N:       a.N,
		Ea:      a.ActivationEnergy(dHrxn),
		T0:      1,
		Comment: a.Comment,
	}
}
