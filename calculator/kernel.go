package calculator

import (
	"himeno/field"
	"himeno/model"

	"github.com/pkg/errors"
)

// Kernel relaxes one row of the working field.
//
// Relax visits every interior cell (r, c, d) with 1 <= c < cols-1 and
// 1 <= d < deps-1, reading only from src, and returns the row's sum of squared
// corrections. dst is nil on the final sweep: the residual is still summed but
// nothing is written.
type Kernel interface {
	Name() model.KernelName
	FlopsPerCell() int
	Relax(src *field.Field, dst *field.Band, r int) float64
}

// NewKernel 根据名字创建 kernel，coefficient 需要系数张量
func NewKernel(name model.KernelName, coeff *Coefficients) (Kernel, error) {
	switch name {
	case model.KernelSixPoint, "":
		return sixPoint{}, nil
	case model.KernelCoefficient:
		if coeff == nil {
			return nil, errors.New("coefficient kernel needs coefficient tensors")
		}
		return &coefficient{coeff: coeff}, nil
	default:
		return nil, errors.Errorf("unknown kernel %q", name)
	}
}

// 六点平均
type sixPoint struct{}

func (sixPoint) Name() model.KernelName { return model.KernelSixPoint }

func (sixPoint) FlopsPerCell() int { return model.FlopsSixPoint }

// The float64 conversions round each product before it is added, so the
// compiler cannot fuse them into FMA instructions and results stay the same
// on every architecture.
func (k sixPoint) Relax(p *field.Field, dst *field.Band, r int) float64 {
	_, cols, deps := p.Shape()
	cur := p.Row(r)
	var out []float64
	if dst != nil {
		out = dst.Row(r)
	}

	gosa := 0.0
	for c := 1; c < cols-1; c++ {
		for d := 1; d < deps-1; d++ {
			i := c*deps + d
			value := (p.Get(r+1, c, d)+p.Get(r, c+1, d)+p.Get(r, c, d+1)+
				p.Get(r-1, c, d)+p.Get(r, c-1, d)+p.Get(r, c, d-1))/6.0 - cur[i]
			gosa += float64(value * value)
			if out != nil {
				out[i] = cur[i] + float64(model.Omega*value)
			}
		}
	}
	return gosa
}
