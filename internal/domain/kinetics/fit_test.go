package kinetics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitArrhenius_RecoversParameters(t *testing.T) {
	truth := &Arrhenius{A: 2.5e9, N: 1.1, Ea: 35000, T0: 1}
	var temps, ks []float64
	for T := 300.0; T <= 2000; T += 100 {
		temps = append(temps, T)
		ks = append(ks, truth.Rate(T))
	}

	fit, err := FitArrhenius(temps, ks)
	require.NoError(t, err)
	assert.InEpsilon(t, truth.A, fit.A, 1e-4)
	assert.InDelta(t, truth.N, fit.N, 1e-6)
	assert.InDelta(t, truth.Ea, fit.Ea, 1.0)
}

func TestFitArrhenius_Errors(t *testing.T) {
	_, err := FitArrhenius([]float64{300, 400}, []float64{1, 2})
	assert.Error(t, err, "too few samples")

	_, err = FitArrhenius([]float64{300, 400, 500}, []float64{1, -2, 0})
	assert.Error(t, err, "non-positive rates")
}
