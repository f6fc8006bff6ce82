package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/tensor"
)

// NLLGradient computes the gradient of the negative-log-likelihood
// loss with respect to the predicted probabilities: elementwise -y/p.
//
// targets is the one-hot label matrix and probs the softmax output,
// identical shapes, one row per example. The result seeds the backward
// pass on the graph's output node.
//
// A predicted probability of zero for the true class yields an
// infinite entry here; pair the seed with Node.BackwardChecked to
// surface that instead of letting it propagate silently.
func NLLGradient(targets, probs *mat.Dense) (*mat.Dense, error) {
	if !tensor.SameShape(targets, probs) {
		return nil, fmt.Errorf("nn: target shape %s does not match prediction shape %s",
			tensor.FormatShape(targets), tensor.FormatShape(probs))
	}

	r, c := targets.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		tRow := targets.RawRowView(i)
		pRow := probs.RawRowView(i)
		outRow := out.RawRowView(i)
		for j := 0; j < c; j++ {
			outRow[j] = -tRow[j] / pRow[j]
		}
	}
	return out, nil
}

// NLLLoss computes the mean negative log likelihood over the batch:
// the average of -log p at each row's true class. Used for progress
// reporting; the training step itself only needs NLLGradient.
func NLLLoss(targets, probs *mat.Dense) (float64, error) {
	if !tensor.SameShape(targets, probs) {
		return 0, fmt.Errorf("nn: target shape %s does not match prediction shape %s",
			tensor.FormatShape(targets), tensor.FormatShape(probs))
	}

	r, c := targets.Dims()
	total := 0.0
	for i := 0; i < r; i++ {
		tRow := targets.RawRowView(i)
		pRow := probs.RawRowView(i)
		for j := 0; j < c; j++ {
			if tRow[j] != 0 {
				total -= tRow[j] * math.Log(pRow[j])
			}
		}
	}
	return total / float64(r), nil
}

// Accuracy reports the fraction of rows whose argmax prediction
// matches the one-hot target.
func Accuracy(targets, probs *mat.Dense) float64 {
	r, c := probs.Dims()
	if r == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < r; i++ {
		if argmax(probs.RawRowView(i), c) == argmax(targets.RawRowView(i), c) {
			correct++
		}
	}
	return float64(correct) / float64(r)
}

func argmax(row []float64, c int) int {
	best := 0
	for j := 1; j < c; j++ {
		if row[j] > row[best] {
			best = j
		}
	}
	return best
}
