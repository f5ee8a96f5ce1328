package calculator

import (
	"himeno/field"
	"himeno/model"

	"github.com/pkg/errors"
)

// Coefficients are the tensors of the generalised 19-point stencil. Every
// plane holds one constant; see NewCoefficients.
type Coefficients struct {
	A    *field.Field // 4 planes, A[3] 为对角项的倒数
	B    *field.Field // 3 planes, 交叉项
	C    *field.Field // 3 planes
	Bnd  *field.Field // 边界控制变量，0 或 1
	Wrk1 *field.Field // 源项
}

// NewCoefficients builds the tensors with the benchmark's constants:
// A = {1, 1, 1, 1/6}, B = 0, C = 1, Bnd = 1, Wrk1 = 0. With these the stencil
// reduces to the six-point average.
func NewCoefficients(rows, cols, deps int) (*Coefficients, error) {
	var (
		co  Coefficients
		err error
	)
	if co.A, err = field.NewPlanes(4, rows, cols, deps); err != nil {
		return nil, errors.Wrap(err, "coefficient A")
	}
	if co.B, err = field.NewPlanes(3, rows, cols, deps); err != nil {
		return nil, errors.Wrap(err, "coefficient B")
	}
	if co.C, err = field.NewPlanes(3, rows, cols, deps); err != nil {
		return nil, errors.Wrap(err, "coefficient C")
	}
	if co.Bnd, err = field.New(rows, cols, deps); err != nil {
		return nil, errors.Wrap(err, "bnd")
	}
	if co.Wrk1, err = field.New(rows, cols, deps); err != nil {
		return nil, errors.Wrap(err, "wrk1")
	}

	co.A.Fill(0, 1.0)
	co.A.Fill(1, 1.0)
	co.A.Fill(2, 1.0)
	co.A.Fill(3, 1.0/6.0)
	for n := 0; n < 3; n++ {
		co.B.Fill(n, 0.0)
		co.C.Fill(n, 1.0)
	}
	co.Bnd.Fill(0, 1.0)
	co.Wrk1.Fill(0, 0.0)
	return &co, nil
}

type coefficient struct {
	coeff *Coefficients
}

func (*coefficient) Name() model.KernelName { return model.KernelCoefficient }

func (*coefficient) FlopsPerCell() int { return model.FlopsCoefficient }

func (k *coefficient) Relax(p *field.Field, dst *field.Band, i int) float64 {
	_, jmax, kmax := p.Shape()
	a, b, c := k.coeff.A, k.coeff.B, k.coeff.C
	bnd, wrk1 := k.coeff.Bnd, k.coeff.Wrk1
	var out []float64
	if dst != nil {
		out = dst.Row(i)
	}

	gosa := 0.0
	for j := 1; j < jmax-1; j++ {
		for l := 1; l < kmax-1; l++ {
			s0 := float64(a.AtPlane(0, i, j, l)*p.At(i+1, j, l)) +
				float64(a.AtPlane(1, i, j, l)*p.At(i, j+1, l)) +
				float64(a.AtPlane(2, i, j, l)*p.At(i, j, l+1)) +
				float64(b.AtPlane(0, i, j, l)*
					(p.At(i+1, j+1, l)-p.At(i+1, j-1, l)-p.At(i-1, j+1, l)+p.At(i-1, j-1, l))) +
				float64(b.AtPlane(1, i, j, l)*
					(p.At(i, j+1, l+1)-p.At(i, j-1, l+1)-p.At(i, j+1, l-1)+p.At(i, j-1, l-1))) +
				float64(b.AtPlane(2, i, j, l)*
					(p.At(i+1, j, l+1)-p.At(i-1, j, l+1)-p.At(i+1, j, l-1)+p.At(i-1, j, l-1))) +
				float64(c.AtPlane(0, i, j, l)*p.At(i-1, j, l)) +
				float64(c.AtPlane(1, i, j, l)*p.At(i, j-1, l)) +
				float64(c.AtPlane(2, i, j, l)*p.At(i, j, l-1)) +
				wrk1.At(i, j, l)

			cur := p.At(i, j, l)
			ss := float64(float64(s0*a.AtPlane(3, i, j, l))-cur) * bnd.At(i, j, l)
			gosa += float64(ss * ss)
			if out != nil {
				out[j*kmax+l] = cur + float64(model.Omega*ss)
			}
		}
	}
	return gosa
}
