// Package data loads classification datasets from CSV into the plain
// tensors the engine consumes: a feature matrix and a one-hot label
// matrix with one row per example.
package data

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/tensor"
)

// Dataset holds an encoded classification dataset.
type Dataset struct {
	Features *mat.Dense // [examples, features]
	Labels   *mat.Dense // [examples, classes], one-hot, each row sums to 1
	Classes  []string   // class names in first-appearance order
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	r, _ := d.Features.Dims()
	return r
}

// LoadCSV reads a dataset from a CSV file.
//
// Format: a header row, then one example per row with numeric feature
// columns and the class label in the last column. Class names are
// mapped to indices in order of first appearance.
//
//	sepal_length,sepal_width,petal_length,petal_width,species
//	5.1,3.5,1.4,0.2,setosa
func LoadCSV(filename string) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // row lengths are validated against the data below
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or missing header")
	}

	// Skip header row
	records = records[1:]
	numFeatures := len(records[0]) - 1
	if numFeatures < 1 {
		return nil, fmt.Errorf("CSV needs at least one feature column and a label column, got %d columns", len(records[0]))
	}

	features := make([]float64, 0, len(records)*numFeatures)
	labels := make([]int, 0, len(records))
	var classes []string
	classIndex := make(map[string]int)

	for i, record := range records {
		if len(record) != numFeatures+1 {
			return nil, fmt.Errorf("invalid record length at row %d: got %d, want %d", i+1, len(record), numFeatures+1)
		}
		for j := 0; j < numFeatures; j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid feature at row %d, column %d: %w", i+1, j+1, err)
			}
			features = append(features, v)
		}

		name := record[numFeatures]
		idx, ok := classIndex[name]
		if !ok {
			idx = len(classes)
			classIndex[name] = idx
			classes = append(classes, name)
		}
		labels = append(labels, idx)
	}

	featureMat, err := tensor.New(len(records), numFeatures, features)
	if err != nil {
		return nil, err
	}
	labelMat, err := tensor.OneHot(labels, len(classes))
	if err != nil {
		return nil, err
	}

	return &Dataset{Features: featureMat, Labels: labelMat, Classes: classes}, nil
}

// Normalize rescales each feature column to [0, 1] in place. Columns
// with a single constant value are left untouched.
func (d *Dataset) Normalize() {
	r, c := d.Features.Dims()
	for j := 0; j < c; j++ {
		minVal, maxVal := d.Features.At(0, j), d.Features.At(0, j)
		for i := 1; i < r; i++ {
			v := d.Features.At(i, j)
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
		if maxVal == minVal {
			continue
		}
		for i := 0; i < r; i++ {
			d.Features.Set(i, j, (d.Features.At(i, j)-minVal)/(maxVal-minVal))
		}
	}
}

// Split shuffles the examples with the given seed and partitions them
// into train and test sets; testFraction is the share held out. Both
// halves are guaranteed non-empty.
func (d *Dataset) Split(testFraction float64, seed int64) (train, test *Dataset, err error) {
	n := d.Len()
	numTest := int(float64(n) * testFraction)
	if numTest < 1 || numTest >= n {
		return nil, nil, fmt.Errorf("test fraction %.2f leaves an empty split for %d examples", testFraction, n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return d.subset(perm[numTest:]), d.subset(perm[:numTest]), nil
}

// subset extracts the given example rows into a new dataset.
func (d *Dataset) subset(rows []int) *Dataset {
	_, fc := d.Features.Dims()
	_, lc := d.Labels.Dims()
	features := mat.NewDense(len(rows), fc, nil)
	labels := mat.NewDense(len(rows), lc, nil)
	for i, row := range rows {
		features.SetRow(i, d.Features.RawRowView(row))
		labels.SetRow(i, d.Labels.RawRowView(row))
	}
	return &Dataset{Features: features, Labels: labels, Classes: d.Classes}
}
