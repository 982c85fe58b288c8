package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/aretw0/bake"
	"github.com/aretw0/bake/pkg/adapters/process"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/environment"
	"github.com/aretw0/bake/pkg/observability"
	"github.com/joho/godotenv"
)

// Streams are the process streams a command writes to.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

// NewEngine builds an engine with the CLI conventions:
//
//   - the bakefile named by --file, or bakefile.yaml when it exists;
//   - ambient configuration from the bakefile's environment section, then
//     --env files, then --set assignments, later sources winning;
//   - shell commands run by a process runner writing to s, with --dotenv
//     variables added to their environment;
//   - the run history named by --history, with --redact patterns masked
//     and reports encrypted when BAKE_HISTORY_KEY is set.
//
// The returned History, possibly nil, must be closed by the caller.
func NewEngine(f Flags, console domain.Console, s Streams, extra ...bake.Option) (*bake.Engine, *History, error) {
	logger := f.Logger()

	overrides, err := loadOverrides(f)
	if err != nil {
		return nil, nil, err
	}
	dotenv, err := loadDotEnv(f.DotEnv)
	if err != nil {
		return nil, nil, err
	}
	history, err := OpenHistory(f.History)
	if err != nil {
		return nil, nil, err
	}
	if err := history.Protect(f.Redact, historyKeys()); err != nil {
		history.Close()
		return nil, nil, err
	}

	work := process.NewRunner(
		process.WithOutput(s.Out, s.Err),
		process.WithEnv(dotenv...),
		process.WithLogger(logger),
	)

	opts := []bake.Option{
		bake.WithMode(f.Mode()),
		bake.WithPrefix(f.Prefix),
		bake.WithConsole(console),
		bake.WithWorkRunner(work),
		bake.WithLogger(logger),
		bake.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}
	if history != nil {
		opts = append(opts, bake.WithHistory(history.Store))
		if history.Locker != nil {
			opts = append(opts, bake.WithLocker(history.Locker, bake.DefaultLockTTL))
		}
	}
	engine := bake.New(append(opts, extra...)...)

	path := f.File
	if path == "" {
		if _, err := os.Stat(DefaultBakefile); err == nil {
			path = DefaultBakefile
		}
	}
	if path != "" {
		if _, err := engine.LoadBakefile(path); err != nil {
			history.Close()
			return nil, nil, err
		}
	}
	engine.Environment().Merge(overrides)

	return engine, history, nil
}

func loadOverrides(f Flags) (*environment.Environment, error) {
	env := environment.New()
	for _, path := range f.EnvFiles {
		file, err := environment.LoadFile(path)
		if err != nil {
			return nil, err
		}
		env.Merge(file)
	}
	set, err := environment.ParseAssignments(f.Set)
	if err != nil {
		return nil, err
	}
	return env.Merge(set), nil
}

// loadDotEnv reads KEY=VALUE files in order; later files win.
func loadDotEnv(paths []string) ([]string, error) {
	merged := make(map[string]string)
	for _, path := range paths {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("dotenv file %s does not exist", path)
			}
			return nil, fmt.Errorf("failed to read dotenv file %s: %w", path, err)
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, len(keys))
	for i, k := range keys {
		env[i] = k + "=" + merged[k]
	}
	return env, nil
}
