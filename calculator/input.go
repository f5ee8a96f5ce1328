package calculator

import (
	"bufio"
	"io"
	"runtime"
	"strconv"

	"himeno/model"

	"github.com/pkg/errors"
)

// MaxCPUsEnv overrides the worker count.
const MaxCPUsEnv = "MAX_CPUS"

// ReadProblem reads rows, cols, deps and the sweep count as unsigned 32-bit
// integers separated by white space or newlines.
func ReadProblem(r io.Reader) (model.Problem, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	names := []string{"rows", "cols", "deps", "sweeps"}
	values := make([]uint32, len(names))
	for i, name := range names {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return model.Problem{}, errors.Wrapf(err, "read %s", name)
			}
			return model.Problem{}, errors.Errorf("read %s: unexpected end of input", name)
		}
		v, err := strconv.ParseUint(scanner.Text(), 10, 32)
		if err != nil {
			return model.Problem{}, errors.Wrapf(err, "must pass valid u32 value for %s", name)
		}
		values[i] = uint32(v)
	}

	p := model.Problem{
		Rows:   int(values[0]),
		Cols:   int(values[1]),
		Deps:   int(values[2]),
		Sweeps: values[3],
	}
	if p.Rows == 0 || p.Cols == 0 || p.Deps == 0 {
		return model.Problem{}, errors.Errorf("grid extents must be positive, got %dx%dx%d", p.Rows, p.Cols, p.Deps)
	}
	return p, nil
}

// ResolveWorkers picks the worker count: the MAX_CPUS environment variable
// first, then the configured value when positive, then the number of CPUs.
// A present but invalid MAX_CPUS is an error.
func ResolveWorkers(lookupEnv func(string) (string, bool), configured int) (int, error) {
	if lookupEnv != nil {
		if s, ok := lookupEnv(MaxCPUsEnv); ok {
			n, err := strconv.Atoi(s)
			if err != nil {
				return 0, errors.Wrapf(err, "parse %s", MaxCPUsEnv)
			}
			if n < 1 {
				return 0, errors.Errorf("%s must be >= 1, got %d", MaxCPUsEnv, n)
			}
			return n, nil
		}
	}
	if configured > 0 {
		return configured, nil
	}
	return runtime.NumCPU(), nil
}
