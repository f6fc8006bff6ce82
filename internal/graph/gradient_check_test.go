package graph_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/graph"
)

const (
	fdEpsilon   = 1e-6
	fdTolerance = 1e-5
)

// weightedSum is a scalar loss over a matrix: sum(weights ⊙ m). Its
// gradient with respect to m is exactly weights, which makes it a
// convenient seed for finite-difference checks.
func weightedSum(weights, m *mat.Dense) float64 {
	var prod mat.Dense
	prod.MulElem(weights, m)
	return mat.Sum(&prod)
}

// numericalGradient computes the centered finite-difference gradient
// of loss with respect to every element of the parameter's data.
func numericalGradient(t *testing.T, p *graph.Parameter, loss func() float64) *mat.Dense {
	t.Helper()
	r, c := p.Data().Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			orig := p.Data().At(i, j)

			p.Data().Set(i, j, orig+fdEpsilon)
			plus := loss()
			p.Data().Set(i, j, orig-fdEpsilon)
			minus := loss()
			p.Data().Set(i, j, orig)

			out.Set(i, j, (plus-minus)/(2*fdEpsilon))
		}
	}
	return out
}

func randomDense(rng *rand.Rand, r, c int) *mat.Dense {
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
	}
	return out
}

// checkOperandGradients builds the graph via build, runs one analytic
// forward/backward cycle with the weighted-sum seed, and compares every
// operand's accumulated gradient against centered finite differences.
func checkOperandGradients(t *testing.T, build func() *graph.Node, weights *mat.Dense, operands ...*graph.Parameter) {
	t.Helper()

	loss := func() float64 {
		out := build()
		out.ZeroGrad()
		val, err := out.Forward()
		require.NoError(t, err)
		return weightedSum(weights, val)
	}

	out := build()
	out.ZeroGrad()
	_, err := out.Forward()
	require.NoError(t, err)
	require.NoError(t, out.Backward(weights))

	// Snapshot every analytic gradient first: the finite-difference
	// loss calls ZeroGrad and wipes the live buffers.
	analytic := make([]*mat.Dense, len(operands))
	for i, p := range operands {
		analytic[i] = mat.DenseCopyOf(p.Grad())
	}

	for i, p := range operands {
		numeric := numericalGradient(t, p, loss)
		require.True(t, mat.EqualApprox(analytic[i], numeric, fdTolerance),
			"operand %q: analytic %v, numeric %v", p.Name(), analytic[i], numeric)
	}
}

func TestGradientCheckMatMul(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := graph.NewParameter("x", randomDense(rng, 3, 4))
	w := graph.NewParameter("w", randomDense(rng, 4, 2))
	weights := randomDense(rng, 3, 2)

	checkOperandGradients(t, func() *graph.Node {
		return graph.MatMul("z", x.Node(), w.Node())
	}, weights, x, w)
}

func TestGradientCheckAdd(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	x := graph.NewParameter("x", randomDense(rng, 3, 4))
	b := graph.NewParameter("b", randomDense(rng, 3, 4))
	weights := randomDense(rng, 3, 4)

	checkOperandGradients(t, func() *graph.Node {
		return graph.Add("z", x.Node(), b.Node())
	}, weights, x, b)
}

func TestGradientCheckAddBroadcast(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := graph.NewParameter("x", randomDense(rng, 3, 4))
	b := graph.NewParameter("b", randomDense(rng, 1, 4))
	weights := randomDense(rng, 3, 4)

	checkOperandGradients(t, func() *graph.Node {
		return graph.Add("z", x.Node(), b.Node())
	}, weights, x, b)
}

func TestGradientCheckReLU(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	// Keep inputs away from the non-differentiable point at zero.
	x := graph.NewParameter("x", mat.NewDense(2, 3, []float64{-1.5, 0.8, -0.3, 2.1, -2.4, 1.1}))
	weights := randomDense(rng, 2, 3)

	checkOperandGradients(t, func() *graph.Node {
		return graph.ReLU("a", x.Node())
	}, weights, x)
}

func TestGradientCheckSoftmax(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	x := graph.NewParameter("x", randomDense(rng, 3, 5))
	weights := randomDense(rng, 3, 5)

	checkOperandGradients(t, func() *graph.Node {
		return graph.Softmax("p", x.Node())
	}, weights, x)
}

func TestGradientCheckTwoLayerComposite(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	x := graph.NewInput("x", randomDense(rng, 4, 3))
	w1 := graph.NewParameter("w1", randomDense(rng, 3, 6))
	b1 := graph.NewParameter("b1", randomDense(rng, 1, 6))
	w2 := graph.NewParameter("w2", randomDense(rng, 6, 2))
	b2 := graph.NewParameter("b2", randomDense(rng, 1, 2))
	weights := randomDense(rng, 4, 2)

	checkOperandGradients(t, func() *graph.Node {
		z1 := graph.Add("z1", graph.MatMul("xw1", x.Node(), w1.Node()), b1.Node())
		a1 := graph.ReLU("a1", z1)
		z2 := graph.Add("z2", graph.MatMul("a1w2", a1, w2.Node()), b2.Node())
		return graph.Softmax("p", z2)
	}, weights, w1, b1, w2, b2)
}

// TestGradientCheckAgainstGonumFD cross-checks the engine with gonum's
// finite-difference package as an independent implementation.
func TestGradientCheckAgainstGonumFD(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	wData := randomDense(rng, 3, 3)
	xData := randomDense(rng, 2, 3)
	weights := randomDense(rng, 2, 3)

	w := graph.NewParameter("w", wData)
	build := func() *graph.Node {
		x := graph.NewInput("x", xData)
		return graph.Softmax("p", graph.MatMul("z", x.Node(), w.Node()))
	}

	out := build()
	out.ZeroGrad()
	_, err := out.Forward()
	require.NoError(t, err)
	require.NoError(t, out.Backward(weights))

	f := func(v []float64) float64 {
		saved := mat.DenseCopyOf(wData)
		wData.SetRawMatrix(mat.NewDense(3, 3, v).RawMatrix())
		defer wData.SetRawMatrix(saved.RawMatrix())

		out := build()
		out.ZeroGrad()
		val, err := out.Forward()
		require.NoError(t, err)
		return weightedSum(weights, val)
	}

	// Copy before fd.Gradient: f zeroes the live gradient buffer.
	analytic := append([]float64(nil), w.Grad().RawMatrix().Data...)

	point := append([]float64(nil), wData.RawMatrix().Data...)
	numeric := fd.Gradient(nil, f, point, &fd.Settings{Formula: fd.Central})
	for i := range analytic {
		require.InDelta(t, analytic[i], numeric[i], fdTolerance, "element %d", i)
	}
}
