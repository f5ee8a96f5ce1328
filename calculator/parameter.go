package calculator

import (
	"himeno/field"
	"himeno/model"

	"github.com/pkg/errors"
)

// 两种问题变种对应的初始化公式
func rowFormula(variant model.Variant) (field.RowFormula, error) {
	switch variant {
	case model.VariantBoundary:
		return field.Square, nil
	case model.VariantReference:
		return field.ShiftedSquare, nil
	default:
		return nil, errors.Errorf("unknown problem variant %q", variant)
	}
}

// DefaultVariant is the initialisation each kernel was benchmarked with: the
// six-point kernel starts from the reference profile, the coefficient kernel
// from the boundary profile.
func DefaultVariant(kernel model.KernelName) model.Variant {
	if kernel == model.KernelCoefficient {
		return model.VariantBoundary
	}
	return model.VariantReference
}

// 补全请求中未填写的参数
func normalize(req model.RunRequest) model.RunRequest {
	if req.Strategy == "" {
		req.Strategy = model.StrategyStatic
	}
	if req.Kernel == "" {
		req.Kernel = model.KernelSixPoint
	}
	if req.Variant == "" {
		req.Variant = DefaultVariant(req.Kernel)
	}
	return req
}

// initParameters 创建并初始化工作场，coefficient kernel 同时创建系数张量
func initParameters(req model.RunRequest) (*field.Field, Kernel, error) {
	formula, err := rowFormula(req.Variant)
	if err != nil {
		return nil, nil, err
	}
	p, err := field.New(req.Rows, req.Cols, req.Deps)
	if err != nil {
		return nil, nil, errors.Wrap(err, "working field")
	}
	p.InitByRow(formula)

	var coeff *Coefficients
	if req.Kernel == model.KernelCoefficient {
		if coeff, err = NewCoefficients(req.Rows, req.Cols, req.Deps); err != nil {
			return nil, nil, err
		}
	}
	kernel, err := NewKernel(req.Kernel, coeff)
	if err != nil {
		return nil, nil, err
	}
	return p, kernel, nil
}
