package crosscat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// Initialize creates one model per requested model number: the engine
// produces fresh latent states over the current codified data, and each
// state is persisted as a theta record with a zero iteration count. A
// nil config means the default configuration.
func (m *Metamodel) Initialize(ctx context.Context, generatorID int64, modelnos []int, config *core.ModelConfig) error {
	cfg := core.DefaultModelConfig()
	if config != nil {
		cfg = *config
	}

	return m.store.Savepoint(ctx, func() error {
		meta, err := m.metadata(ctx, generatorID)
		if err != nil {
			return err
		}
		data, err := m.dataMatrix(ctx, generatorID, meta)
		if err != nil {
			return err
		}

		states, err := m.engine.Initialize(ctx, core.InitializeRequest{
			Metadata: meta,
			Data:     data,
			Models:   len(modelnos),
			Config:   cfg,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize models: %w", err)
		}
		if len(states) != len(modelnos) {
			return fmt.Errorf("engine initialized %d states for %d models", len(states), len(modelnos))
		}

		for i, modelno := range modelnos {
			theta := &core.Theta{
				Iterations:     0,
				ColumnCRPAlpha: []float64{},
				LogScore:       []float64{},
				NumViews:       []int{},
				Config:         cfg,
			}
			theta.SetLatent(states[i])

			blob, err := core.EncodeTheta(theta)
			if err != nil {
				return err
			}
			if err := m.store.AddModel(ctx, generatorID, modelno); err != nil {
				return err
			}
			_, err = m.store.Exec(ctx,
				`INSERT INTO bayesdb_crosscat_theta (generator_id, modelno, theta_json) VALUES (?, ?, ?)`,
				generatorID, modelno, blob,
			)
			if err != nil {
				return fmt.Errorf("failed to store theta for model %d: %w", modelno, err)
			}
		}

		m.logger.Debug("initialized models",
			"generator", m.generatorName(ctx, generatorID),
			"models", len(modelnos))
		return nil
	})
}

// theta loads the persisted latent state of one model.
func (m *Metamodel) theta(ctx context.Context, generatorID int64, modelno int) (*core.Theta, error) {
	var blob []byte
	err := m.store.QueryRow(ctx,
		`SELECT theta_json FROM bayesdb_crosscat_theta WHERE generator_id = ? AND modelno = ?`,
		generatorID, modelno,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NoSuchModelError{
			Generator: m.generatorName(ctx, generatorID),
			ModelNo:   modelno,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load theta for model %d: %w", modelno, err)
	}
	return core.DecodeTheta(blob)
}

// saveTheta persists an updated latent state for one model.
func (m *Metamodel) saveTheta(ctx context.Context, generatorID int64, modelno int, theta *core.Theta) error {
	blob, err := core.EncodeTheta(theta)
	if err != nil {
		return err
	}
	res, err := m.store.Exec(ctx,
		`UPDATE bayesdb_crosscat_theta SET theta_json = ? WHERE generator_id = ? AND modelno = ?`,
		blob, generatorID, modelno,
	)
	if err != nil {
		return fmt.Errorf("failed to store theta for model %d: %w", modelno, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return &core.NoSuchModelError{
			Generator: m.generatorName(ctx, generatorID),
			ModelNo:   modelno,
		}
	}
	return nil
}

// allThetas loads every model of a generator in model-number order.
func (m *Metamodel) allThetas(ctx context.Context, generatorID int64) ([]int, []*core.Theta, error) {
	rows, err := m.store.Query(ctx,
		`SELECT modelno, theta_json FROM bayesdb_crosscat_theta WHERE generator_id = ? ORDER BY modelno`,
		generatorID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load thetas: %w", err)
	}
	defer rows.Close()

	var (
		modelnos []int
		thetas   []*core.Theta
	)
	for rows.Next() {
		var (
			modelno int
			blob    []byte
		)
		if err := rows.Scan(&modelno, &blob); err != nil {
			return nil, nil, fmt.Errorf("failed to scan theta: %w", err)
		}
		theta, err := core.DecodeTheta(blob)
		if err != nil {
			return nil, nil, err
		}
		modelnos = append(modelnos, modelno)
		thetas = append(thetas, theta)
	}
	return modelnos, thetas, rows.Err()
}

// latentStates projects the latent state pairs out of a theta batch.
func latentStates(thetas []*core.Theta) []core.LatentState {
	states := make([]core.LatentState, len(thetas))
	for i, t := range thetas {
		states[i] = t.Latent()
	}
	return states
}
