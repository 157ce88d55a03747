package net

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Grades is the content of a grades CSV: labeled rows for training and
// unlabeled rows to predict.
type Grades struct {
	X       [][]float64
	Y       []float64
	Queries [][]float64
}

// LoadGradesFile loads a grades CSV from disk.
func LoadGradesFile(filename string, hasHeader bool) (*Grades, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadGradesCSV(file, hasHeader)
}

// LoadGradesCSV reads rows of "feature1,feature2,score".
// A row with an empty score is a query row.
// hasHeader skips the first line if true.
func LoadGradesCSV(r io.Reader, hasHeader bool) (*Grades, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = InputSize + OutputSize
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv")
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, errors.New("csv file has no data rows")
	}

	g := &Grades{}
	for i := startRow; i < len(records); i++ {
		record := records[i]

		features := make([]float64, InputSize)
		for j := 0; j < InputSize; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[j]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to parse value at row %d, col %d", i, j)
			}
			features[j] = v
		}

		scoreStr := strings.TrimSpace(record[InputSize])
		if scoreStr == "" {
			g.Queries = append(g.Queries, features)
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse score at row %d", i)
		}
		g.X = append(g.X, features)
		g.Y = append(g.Y, score)
	}

	return g, nil
}
