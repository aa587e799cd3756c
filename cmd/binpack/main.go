// Command binpack generates a random bin packing instance, solves it and
// prints the solve status. Details go to the structured log.
package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/copyleftdev/binpack/internal/binpacking"
	"github.com/copyleftdev/binpack/internal/config"
	"github.com/copyleftdev/binpack/internal/logging"
	"github.com/copyleftdev/binpack/internal/mip/lprelax"
	"github.com/copyleftdev/binpack/internal/mip/pbsolver"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "binpack: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	seed := cfg.Demo.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	inst, err := binpacking.NewInstance(cfg.Demo.BinSize,
		binpacking.WithNumItems(cfg.Demo.NumItems),
		binpacking.WithMaxItemSize(cfg.Demo.MaxItemSize),
		binpacking.WithRand(rand.New(rand.NewSource(seed))),
	)
	if err != nil {
		return err
	}
	logger.Info("instance generated", map[string]interface{}{
		"bin_size":    inst.BinSize(),
		"item_sizes":  inst.ItemSizes(),
		"seed":        seed,
		"lower_bound": inst.LowerBound(),
	})

	engine := pbsolver.New(
		pbsolver.WithLogger(logging.NewZapLogger(logger.WithField("component", pbsolver.Name))),
		pbsolver.WithVerbose(cfg.Solver.Verbose),
	)
	problem, err := binpacking.NewProblem(inst, engine, binpacking.WithLogger(logger))
	if err != nil {
		return err
	}

	status, err := problem.Solve(cfg.ClampTimeLimit(cfg.Solver.TimeLimit))
	if err != nil {
		return err
	}
	fmt.Println(status)

	if packing, err := problem.Packing(); err == nil {
		logger.Info("packing", map[string]interface{}{
			"bins":  packing.Bins,
			"loads": packing.Loads,
		})
	}

	relax, err := lprelax.Solve(engine.Model())
	switch {
	case errors.Is(err, lprelax.ErrTooLarge):
		logger.Debug("LP bound skipped", map[string]interface{}{"items": inst.NumItems()})
	case err != nil:
		logger.Warn("LP bound failed", map[string]interface{}{"error": err.Error()})
	default:
		logger.Info("LP bound", map[string]interface{}{
			"status":    relax.Status.String(),
			"objective": relax.Objective,
		})
	}
	return nil
}
