package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProblem(t *testing.T) {
	p := Problem{Rows: 33, Cols: 65, Deps: 129, Sweeps: 5}
	assert.Equal(t, "33x65x129 with 5 iterations", p.String())
	assert.Equal(t, 31*63*127, p.Cells())

	assert.Zero(t, Problem{Rows: 2, Cols: 9, Deps: 9}.Cells())
	assert.Zero(t, Problem{Rows: 9, Cols: 9, Deps: 1}.Cells())
}
