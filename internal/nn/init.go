package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Xavier returns an r×c matrix initialized with the Xavier/Glorot
// uniform distribution: U(-b, b) with b = sqrt(6 / (fanIn + fanOut)).
//
// This keeps the variance of activations roughly constant across
// layers at the start of training. The caller supplies the random
// source so runs are reproducible.
func Xavier(rng *rand.Rand, fanIn, fanOut, r, c int) *mat.Dense {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		for j := range row {
			row[j] = (rng.Float64()*2 - 1) * bound
		}
	}
	return out
}
