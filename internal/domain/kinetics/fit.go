package kinetics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/ReactKin/pkg/errors"
)

// FitArrhenius fits ln k = ln A + n·ln T − Ea/(R·T) to sampled rate
// coefficients by linear least squares.  Used to express derived rates
// (reverse rates from equilibrium) back in modified Arrhenius form.
func FitArrhenius(temps, ks []float64) (*Arrhenius, error) {
	if len(temps) != len(ks) || len(temps) < 3 {
		return nil, errors.New(errors.ErrCodeKineticsFitFailed,
			"need at least three (T, k) samples")
	}
	rows := 0
	x := make([]float64, 0, 3*len(temps))
	y := make([]float64, 0, len(temps))
	for i, T := range temps {
		if ks[i] <= 0 || T <= 0 {
			continue
		}
		x = append(x, 1, math.Log(T), -1/(GasConstant*T))
		y = append(y, math.Log(ks[i]))
		rows++
	}
	if rows < 3 {
		return nil, errors.New(errors.ErrCodeKineticsFitFailed, "too few positive rate samples")
	}

	A := mat.NewDense(rows, 3, x)
	b := mat.NewVecDense(rows, y)
	var qr mat.QR
	qr.Factorize(A)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeKineticsFitFailed, "singular least-squares system")
	}
	return &Arrhenius{
		A:  math.Exp(sol.AtVec(0)),
		N:  sol.AtVec(1),
		Ea: sol.AtVec(2),
		T0: 1,
	}, nil
}
