// Package main trains a two-layer feed-forward classifier with the
// gradient engine and can explain how a parameter's gradient is
// assembled by the chain rule.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mzwiesler/gradient/internal/data"
	"github.com/mzwiesler/gradient/internal/graph"
	"github.com/mzwiesler/gradient/internal/nn"
	"github.com/mzwiesler/gradient/internal/optim"
	"github.com/mzwiesler/gradient/internal/render"
)

func main() {
	var (
		dataPath = flag.String("data", "", "CSV dataset: numeric feature columns, class label last (required)")
		hidden   = flag.Int("hidden", 16, "hidden layer width")
		epochs   = flag.Int("epochs", 100, "training epochs")
		lr       = flag.Float64("lr", 0.1, "learning rate")
		testFrac = flag.Float64("test", 0.2, "held-out test fraction")
		seed     = flag.Int64("seed", 42, "seed for weight init and the split")
		explain  = flag.String("explain", "", "print the chain-rule expression for a parameter (e.g. W1)")
		dotPath  = flag.String("dot", "", "write the computation graph in DOT format to this file")
	)
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*dataPath, *hidden, *epochs, *lr, *testFrac, *seed, *explain, *dotPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(dataPath string, hidden, epochs int, lr, testFrac float64, seed int64, explain, dotPath string) error {
	dataset, err := data.LoadCSV(dataPath)
	if err != nil {
		return err
	}
	dataset.Normalize()
	train, test, err := dataset.Split(testFrac, seed)
	if err != nil {
		return err
	}

	_, numFeatures := train.Features.Dims()
	net, err := nn.New(nn.Config{
		Inputs:  numFeatures,
		Hidden:  hidden,
		Classes: len(dataset.Classes),
		Seed:    seed,
	})
	if err != nil {
		return err
	}
	opt := optim.NewSGD(net.Parameters(), optim.SGDConfig{LR: lr})

	fmt.Printf("training %d-%d-%d network on %d examples (%d held out)\n",
		numFeatures, hidden, len(dataset.Classes), train.Len(), test.Len())

	var last nn.StepResult
	for epoch := 1; epoch <= epochs; epoch++ {
		last, err = net.Step(train.Features, train.Labels)
		if err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		opt.Step()

		if epoch%10 == 0 || epoch == 1 || epoch == epochs {
			fmt.Printf("epoch %3d  loss %.4f  train acc %.3f\n",
				epoch, last.Loss, nn.Accuracy(train.Labels, last.Probs))
		}
	}

	probs, err := net.Predict(test.Features)
	if err != nil {
		return err
	}
	fmt.Printf("test accuracy: %.3f\n", nn.Accuracy(test.Labels, probs))

	if last.Output == nil {
		return nil // no epochs ran; nothing to explain or render
	}
	if explain != "" {
		if err := printChain(net, last, explain); err != nil {
			return err
		}
	}
	if dotPath != "" {
		if err := os.WriteFile(dotPath, []byte(render.DOT(last.Output)), 0o644); err != nil {
			return fmt.Errorf("failed to write DOT file: %w", err)
		}
		fmt.Printf("wrote graph to %s\n", dotPath)
	}
	return nil
}

// printChain prints the chain-rule product assembling the named
// parameter's gradient in the last training cycle's graph.
func printChain(net *nn.Network, last nn.StepResult, name string) error {
	for _, p := range net.Parameters() {
		if p.Name() != name {
			continue
		}
		factors, err := graph.Chain(last.Output, p)
		if err != nil {
			return err
		}
		fmt.Printf("d(loss)/d(%s) = d(loss)/d(P) * %s\n", name, graph.FormatChain(factors))
		return nil
	}
	return fmt.Errorf("unknown parameter %q (have W1, b1, W2, b2)", name)
}
