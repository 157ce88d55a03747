package net

import "fmt"

// ShapeError reports inputs or parameter vectors whose dimensions do not match
// the fixed network shape.
type ShapeError struct {
	Op   string
	Want string
	Got  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %s, got %s", e.Op, e.Want, e.Got)
}

func shapeErrorf(op, want, gotFormat string, args ...interface{}) *ShapeError {
	return &ShapeError{Op: op, Want: want, Got: fmt.Sprintf(gotFormat, args...)}
}

// DegenerateInputError reports a training feature column that cannot be
// normalized because its maximum is zero (or otherwise not a positive finite value).
type DegenerateInputError struct {
	Column int
	Max    float64
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("feature column %d has maximum %v, cannot normalize by it", e.Column, e.Max)
}
