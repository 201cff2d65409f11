package treegen

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Objective scores a candidate split from the ln k values of the two
// resulting reaction sets.  Lower is better.
type Objective func(ks1, ks2 []float64) float64

// InformationGain favours splits whose halves each have a narrow rate
// spread, weighting each half by its size.
func InformationGain(ks1, ks2 []float64) float64 {
	return float64(len(ks1))*stdDev(ks1) + float64(len(ks2))*stdDev(ks2)
}

// EvenSplit favours splits that balance the number of reactions on each
// side, regardless of their rates.
func EvenSplit(ks1, ks2 []float64) float64 {
	return math.Abs(float64(len(ks1)) - float64(len(ks2)))
}

func stdDev(ks []float64) float64 {
	if len(ks) < 2 {
		return 0
	}
	return stat.StdDev(ks, nil)
}

func objectiveFor(name string) Objective {
	if name == "split" {
		return EvenSplit
	}
	return InformationGain
}
