package crosscat

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// Analyze runs a bounded training loop over a generator's models. The
// loop checkpoints after every step batch: each batch loads the thetas,
// runs the engine, and persists the updated states and iteration
// counters inside one savepoint, so a failure mid-run loses at most the
// current batch. Untimed runs execute all remaining iterations as a
// single batch; timed runs step one iteration at a time so the deadline
// is honoured between batches.
func (m *Metamodel) Analyze(ctx context.Context, generatorID int64, opts core.AnalyzeOptions) error {
	if opts.Iterations <= 0 && opts.MaxDuration <= 0 {
		return fmt.Errorf("analyze needs an iteration count or a duration bound")
	}

	meta, err := m.metadata(ctx, generatorID)
	if err != nil {
		return err
	}
	data, err := m.dataMatrix(ctx, generatorID, meta)
	if err != nil {
		return err
	}

	logger := m.logger.With(
		"run_id", uuid.NewString(),
		"generator", m.generatorName(ctx, generatorID))
	logger.Debug("starting analysis",
		"iterations", opts.Iterations,
		"max_duration", opts.MaxDuration,
		"models", opts.ModelNos)

	var deadline time.Time
	timed := opts.MaxDuration > 0
	if timed {
		deadline = time.Now().Add(opts.MaxDuration)
	}

	completed := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		nSteps := 1
		if !timed {
			nSteps = opts.Iterations - completed
		}

		err := m.store.Savepoint(ctx, func() error {
			modelnos, thetas, err := m.thetasFor(ctx, generatorID, opts.ModelNos)
			if err != nil {
				return err
			}
			if len(thetas) == 0 {
				return fmt.Errorf("no models to analyze in generator %q", m.generatorName(ctx, generatorID))
			}

			// Models analyzed as one batch share a single engine call, so
			// they must agree on the kernel list.
			kernels := thetas[0].Config.KernelList
			for i, theta := range thetas[1:] {
				if !slices.Equal(theta.Config.KernelList, kernels) {
					return fmt.Errorf("model %d uses a different kernel list; analyze it separately",
						modelnos[i+1])
				}
			}

			result, err := m.engine.Analyze(ctx, core.AnalyzeRequest{
				Metadata: meta,
				Data:     data,
				States:   latentStates(thetas),
				Kernels:  kernels,
				Steps:    nSteps,
			})
			if err != nil {
				return fmt.Errorf("failed to analyze models: %w", err)
			}
			if len(result.States) != len(thetas) {
				return fmt.Errorf("engine returned %d states for %d models", len(result.States), len(thetas))
			}

			for i, theta := range thetas {
				theta.SetLatent(result.States[i])
				theta.Iterations += nSteps
				if i < len(result.Diagnostics) {
					d := result.Diagnostics[i]
					theta.ColumnCRPAlpha = append(theta.ColumnCRPAlpha, d.ColumnCRPAlpha...)
					theta.LogScore = append(theta.LogScore, d.LogScore...)
					theta.NumViews = append(theta.NumViews, d.NumViews...)
				}
				if err := m.saveTheta(ctx, generatorID, modelnos[i], theta); err != nil {
					return err
				}
				if err := m.store.BumpModelIterations(ctx, generatorID, modelnos[i], nSteps); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		completed += nSteps
		logger.Debug("analysis checkpoint", "steps", nSteps, "completed", completed)

		if opts.Iterations > 0 && completed >= opts.Iterations {
			return nil
		}
		if timed && !time.Now().Before(deadline) {
			return nil
		}
	}
}

// thetasFor loads either every model or an explicit model set, in
// model-number order.
func (m *Metamodel) thetasFor(ctx context.Context, generatorID int64, modelnos []int) ([]int, []*core.Theta, error) {
	if modelnos == nil {
		return m.allThetas(ctx, generatorID)
	}
	sorted := slices.Clone(modelnos)
	slices.Sort(sorted)
	thetas := make([]*core.Theta, len(sorted))
	for i, modelno := range sorted {
		theta, err := m.theta(ctx, generatorID, modelno)
		if err != nil {
			return nil, nil, err
		}
		thetas[i] = theta
	}
	return sorted, thetas, nil
}
