/**
 *
 * Dense 3-D field stored in one flat slice. Layout is plane-major, then row,
 * column and depth; depth varies fastest so that one row (all columns and
 * depths of a fixed r) is a contiguous block, which is what the workers walk.
 *
 */

package field

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

var (
	ErrInvalidShape = errors.New("field: extents must be positive")
	ErrOutOfRange   = errors.New("field: index out of range")
)

type Field struct {
	planes int
	rows   int
	cols   int
	deps   int

	// 一行的元素个数 / 一个 plane 的元素个数
	rowSize   int
	planeSize int

	data []float64
}

// New 创建单 plane 的场
func New(rows, cols, deps int) (*Field, error) {
	return NewPlanes(1, rows, cols, deps)
}

// NewPlanes is used for coefficient tensors with a leading plane index.
func NewPlanes(planes, rows, cols, deps int) (*Field, error) {
	if planes <= 0 || rows <= 0 || cols <= 0 || deps <= 0 {
		return nil, errors.Wrapf(ErrInvalidShape, "shape %dx%dx%dx%d", planes, rows, cols, deps)
	}
	size, ok := mulInt(planes, rows, cols, deps)
	// 字节数也不能溢出
	if !ok || size > math.MaxInt/8 {
		return nil, errors.Wrapf(ErrInvalidShape, "shape %dx%dx%dx%d overflows int", planes, rows, cols, deps)
	}
	rowSize := cols * deps
	planeSize := rows * rowSize
	return &Field{
		planes:    planes,
		rows:      rows,
		cols:      cols,
		deps:      deps,
		rowSize:   rowSize,
		planeSize: planeSize,
		data:      make([]float64, size),
	}, nil
}

// mulInt multiplies positive factors, reporting false on int overflow.
func mulInt(factors ...int) (int, bool) {
	n := 1
	for _, f := range factors {
		if n > math.MaxInt/f {
			return 0, false
		}
		n *= f
	}
	return n, true
}

func (f *Field) Planes() int { return f.planes }
func (f *Field) Rows() int   { return f.rows }
func (f *Field) Cols() int   { return f.cols }
func (f *Field) Deps() int   { return f.deps }

// Shape returns rows, cols, deps.
func (f *Field) Shape() (int, int, int) {
	return f.rows, f.cols, f.deps
}

func (f *Field) String() string {
	if f.planes == 1 {
		return fmt.Sprintf("%dx%dx%d", f.rows, f.cols, f.deps)
	}
	return fmt.Sprintf("%dx%dx%dx%d", f.planes, f.rows, f.cols, f.deps)
}

func (f *Field) index(n, r, c, d int) int {
	return n*f.planeSize + r*f.rowSize + c*f.deps + d
}

// at 不做越界检查，只在已知合法的下标上使用
func (f *Field) at(n, r, c, d int) *float64 {
	return &f.data[f.index(n, r, c, d)]
}

// At reads plane 0. Indices must be in range; only the slice bounds check of
// the runtime guards it.
func (f *Field) At(r, c, d int) float64 {
	return f.data[r*f.rowSize+c*f.deps+d]
}

func (f *Field) Set(r, c, d int, v float64) {
	f.data[r*f.rowSize+c*f.deps+d] = v
}

// AtPlane reads plane n of a coefficient tensor.
func (f *Field) AtPlane(n, r, c, d int) float64 {
	return *f.at(n, r, c, d)
}

func (f *Field) SetPlane(n, r, c, d int, v float64) {
	*f.at(n, r, c, d) = v
}

// Lookup is the checked variant of At.
func (f *Field) Lookup(r, c, d int) (float64, error) {
	if r < 0 || r >= f.rows || c < 0 || c >= f.cols || d < 0 || d >= f.deps {
		return 0, errors.Wrapf(ErrOutOfRange, "(%d, %d, %d) in %s", r, c, d, f)
	}
	return f.At(r, c, d), nil
}

// Get extrapolates one cell past every face instead of storing ghost cells:
// the row below the field is 0, the row above it is 1, and the side faces
// carry the row profile (r+1)²/(rows+1)².
func (f *Field) Get(r, c, d int) float64 {
	if r == -1 {
		return 0.0
	}
	if r == f.rows {
		return 1.0
	}
	if c == -1 || d == -1 || c == f.cols || d == f.deps {
		return ShiftedSquare(r, f.rows)
	}
	return f.At(r, c, d)
}

// Row 返回第 r 行（plane 0）的只读视图
func (f *Field) Row(r int) []float64 {
	start := r * f.rowSize
	return f.data[start : start+f.rowSize : start+f.rowSize]
}

// Fill sets every cell of plane n to value.
func (f *Field) Fill(n int, value float64) {
	start := n * f.planeSize
	plane := f.data[start : start+f.planeSize]
	for i := range plane {
		plane[i] = value
	}
}

// RowFormula gives the value of every cell in row r of a field with rows rows.
type RowFormula func(r, rows int) float64

// InitByRow 按行初始化 plane 0，同一行的所有列和深度取相同的值
func (f *Field) InitByRow(formula RowFormula) {
	for r := 0; r < f.rows; r++ {
		value := formula(r, f.rows)
		row := f.data[r*f.rowSize : (r+1)*f.rowSize]
		for i := range row {
			row[i] = value
		}
	}
}

// Square is r²/(rows−1)². A single-row field has no profile and stays 0.
func Square(r, rows int) float64 {
	if rows < 2 {
		return 0.0
	}
	return float64(r*r) / float64((rows-1)*(rows-1))
}

// ShiftedSquare is (r+1)²/(rows+1)².
func ShiftedSquare(r, rows int) float64 {
	return float64((r+1)*(r+1)) / float64((rows+1)*(rows+1))
}

// Clone 深拷贝，用作交替缓冲区
func (f *Field) Clone() *Field {
	g := *f
	g.data = make([]float64, len(f.data))
	copy(g.data, f.data)
	return &g
}

// SameShape reports whether g can stand in for f as a double buffer.
func (f *Field) SameShape(g *Field) bool {
	return f.planes == g.planes && f.rows == g.rows && f.cols == g.cols && f.deps == g.deps
}
