package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"himeno/calculator"
	"himeno/model"
	"himeno/server"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// 命令行参数，非零值覆盖配置文件
type overrides struct {
	workers  int
	strategy string
	kernel   string
	variant  string
	verbose  bool
}

var (
	configPath string
	flags      overrides
	reference  bool
	addr       string
)

var rootCmd = &cobra.Command{
	Use:   "himeno [rows cols deps iterations]",
	Short: "Parallel Jacobi relaxation benchmark",
	Long: `Runs the Jacobi relaxation on a rows x cols x deps grid and prints the
residual of the last iteration. The four sizes are taken from the arguments
or, when none are given, read from stdin. Diagnostics go to stderr.`,
	Args:         problemArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		p, err := readProblem(args, os.Stdin)
		if err != nil {
			return err
		}
		req, err := flags.request(cfg, p, os.LookupEnv)
		if err != nil {
			return err
		}
		log.Infof("Matrix size is %s", p)
		log.Infof("Working with %d threads", req.Workers)

		job, err := calculator.NewJob(req)
		if err != nil {
			return err
		}
		res := job.Run(reference)
		fmt.Printf("%.6f\n", res.Residual)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run jobs submitted over a websocket at /ws and expose /metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		n, err := calculator.ResolveWorkers(os.LookupEnv, cfg.Workers)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr = addr
		}
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
		return server.NewServer(cfg.Addr, upgrader, cfg, n).Serve()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", calculator.DefaultConfigPath, "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.strategy, "strategy", "", "row decomposition: static or dynamic (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.kernel, "kernel", "", "stencil: six-point or coefficient (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.variant, "variant", "", "initial field: boundary or reference (overrides config)")

	rootCmd.Flags().IntVar(&flags.workers, "workers", 0, "worker count (overrides MAX_CPUS and config)")
	rootCmd.Flags().BoolVar(&reference, "reference", false, "run the single-threaded reference instead")

	serveCmd.Flags().StringVar(&addr, "addr", ":9000", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// 问题规模来自 4 个参数或 stdin
func problemArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 4 {
		return errors.Errorf("accepts 0 or 4 arg(s), received %d", len(args))
	}
	return nil
}

func readProblem(args []string, stdin io.Reader) (model.Problem, error) {
	if len(args) == 4 {
		return calculator.ReadProblem(strings.NewReader(strings.Join(args, " ")))
	}
	return calculator.ReadProblem(stdin)
}

// 读取配置、设置日志，命令行参数覆盖配置文件
func setup() (calculator.Config, error) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := calculator.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, errors.Wrap(err, "log level")
	}
	if flags.verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	return flags.apply(cfg), nil
}

// apply overrides the configured strategy, kernel and variant. Switching the
// kernel without naming a variant selects that kernel's default variant.
func (o overrides) apply(cfg calculator.Config) calculator.Config {
	if o.strategy != "" {
		cfg.Strategy = model.StrategyName(o.strategy)
	}
	if o.kernel != "" {
		cfg.Kernel = model.KernelName(o.kernel)
		if o.variant == "" {
			cfg.Variant = calculator.DefaultVariant(cfg.Kernel)
		}
	}
	if o.variant != "" {
		cfg.Variant = model.Variant(o.variant)
	}
	return cfg
}

// request builds the run request. The worker count is --workers when given,
// otherwise MAX_CPUS, the configured count or the number of CPUs.
func (o overrides) request(cfg calculator.Config, p model.Problem, lookupEnv func(string) (string, bool)) (model.RunRequest, error) {
	n := o.workers
	if n <= 0 {
		var err error
		if n, err = calculator.ResolveWorkers(lookupEnv, cfg.Workers); err != nil {
			return model.RunRequest{}, err
		}
	}
	return model.RunRequest{
		Problem:  p,
		Workers:  n,
		Strategy: cfg.Strategy,
		Kernel:   cfg.Kernel,
		Variant:  cfg.Variant,
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
