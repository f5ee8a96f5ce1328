package calculator

import (
	"himeno/model"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

const DefaultConfigPath = "conf/config.ini"

type Config struct {
	// 0 表示使用 CPU 核数
	Workers  int
	Strategy model.StrategyName
	Kernel   model.KernelName
	Variant  model.Variant

	Addr string
	// 单次请求允许的最大网格单元数
	MaxCells int
	// 单次请求允许的最大 worker 数，0 表示 CPU 核数的 4 倍
	MaxWorkers int

	LogLevel string
}

// LoadConfig reads the ini file at path. A missing file yields the defaults;
// a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	file, err := ini.LooseLoad(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	return loadCfg(file), nil
}

func loadCfg(file *ini.File) Config {
	calc := file.Section("calculator")
	server := file.Section("server")

	strategy := calc.Key("Strategy").In(string(model.StrategyStatic),
		[]string{string(model.StrategyStatic), string(model.StrategyDynamic)})
	kernel := calc.Key("Kernel").In(string(model.KernelSixPoint),
		[]string{string(model.KernelSixPoint), string(model.KernelCoefficient)})
	// 未配置时使用该 kernel 的默认初始化方式
	variant := calc.Key("Variant").In(string(DefaultVariant(model.KernelName(kernel))),
		[]string{string(model.VariantBoundary), string(model.VariantReference)})

	return Config{
		Workers:    calc.Key("Workers").MustInt(0),
		Strategy:   model.StrategyName(strategy),
		Kernel:     model.KernelName(kernel),
		Variant:    model.Variant(variant),
		Addr:       server.Key("Addr").MustString(":9000"),
		MaxCells:   server.Key("MaxCells").MustInt(1 << 24),
		MaxWorkers: server.Key("MaxWorkers").MustInt(0),
		LogLevel:   file.Section("log").Key("Level").MustString("info"),
	}
}
