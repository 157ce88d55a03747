package net

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGradesCSV(t *testing.T) {
	input := strings.Join([]string{
		"hours_sleep,hours_study,score",
		"1,2,50",
		"2, 3, 60",
		"3,4,",
		"4,5,80",
		"5,6, ",
	}, "\n")

	g, err := LoadGradesCSV(strings.NewReader(input), true)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{1, 2}, {2, 3}, {4, 5}}, g.X)
	assert.Equal(t, []float64{50, 60, 80}, g.Y)
	assert.Equal(t, [][]float64{{3, 4}, {5, 6}}, g.Queries)
}

func TestLoadGradesCSVErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		header bool
	}{
		{"only header", "a,b,c\n", true},
		{"bad feature", "x,2,50\n", false},
		{"bad score", "1,2,abc\n", false},
		{"wrong field count", "1,2\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGradesCSV(strings.NewReader(tt.input), tt.header)
			assert.Error(t, err)
		})
	}
}

func TestLoadGradesFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "grades.csv")
	require.NoError(t, os.WriteFile(filename, []byte("1,2,50\n2,3,\n"), 0644))

	g, err := LoadGradesFile(filename, false)
	require.NoError(t, err)
	assert.Len(t, g.X, 1)
	assert.Len(t, g.Queries, 1)

	_, err = LoadGradesFile(filepath.Join(t.TempDir(), "missing.csv"), false)
	assert.Error(t, err)
}
