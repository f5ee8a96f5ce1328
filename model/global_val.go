package model

// 全局常量
// 1. Omega 为松弛系数
// 2. 每个单元的浮点运算次数用于计算 MFLOPS

const (
	Omega = 0.8

	FlopsSixPoint    = 10
	FlopsCoefficient = 34
)

// 问题变种，对应两种初始化公式
type Variant string

const (
	// r² / (rows-1)²
	VariantBoundary Variant = "boundary"
	// (r+1)² / (rows+1)²
	VariantReference Variant = "reference"
)

type KernelName string

const (
	KernelSixPoint    KernelName = "six-point"
	KernelCoefficient KernelName = "coefficient"
)

type StrategyName string

const (
	StrategyStatic  StrategyName = "static"
	StrategyDynamic StrategyName = "dynamic"
)
