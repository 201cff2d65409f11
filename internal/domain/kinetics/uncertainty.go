package kinetics

import "math"

// RateUncertainty summarizes the spread of training rates behind a fitted
// rule as a normal distribution over ln(k_true/k_rule).
type RateUncertainty struct {
	// Mu and Var are the mean and variance of the log-ratio residuals.
	Mu  float64
	Var float64

	// N is the number of reactions behind the fit.
	N int

	// Tref is the temperature the residuals were referenced to, K.
	Tref float64

	// Correlation labels the tree node whose uncertainties move together.
	Correlation string
}

// ExpectedLogUncertainty is E|x| for x ~ N(Mu, Var), the expected factor (in
// log space) by which an estimate misses.
func (u *RateUncertainty) ExpectedLogUncertainty() float64 {
	if u.Var <= 0 {
		return math.Abs(u.Mu)
	}
	s := math.Sqrt(u.Var)
	return math.Sqrt(2/math.Pi)*s*math.Exp(-u.Mu*u.Mu/(2*u.Var)) +
		u.Mu*math.Erf(u.Mu/(math.Sqrt2*s))
}

// rankAccuracy maps a rule's rank onto the expected activation-energy
// accuracy in J/mol.  Rank 0 (unranked) and anything past 10 carry the
// worst-case figure.
var rankAccuracy = map[int]float64{
	1:  0.2 * 4184,
	2:  0.5 * 4184,
	3:  1.0 * 4184,
	4:  1.5 * 4184,
	5:  2.0 * 4184,
	6:  3.0 * 4184,
	7:  4.0 * 4184,
	8:  5.0 * 4184,
	9:  14.0 * 4184,
	10: 14.0 * 4184,
}

// RankAccuracy returns the expected activation-energy accuracy for a rule
// rank, J/mol.
func RankAccuracy(rank int) float64 {
	if v, ok := rankAccuracy[rank]; ok {
		return v
	}
	return 14.0 * 4184
}
