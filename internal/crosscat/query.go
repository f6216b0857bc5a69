package crosscat

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// defaultMISamples is the total sample budget for mutual-information
// estimates when the caller supplies none.
const defaultMISamples = 100

// queryStates loads the metadata document and every model's latent
// state for a query. Queries need at least one trained model.
func (m *Metamodel) queryStates(ctx context.Context, generatorID int64) (*core.Metadata, []*core.Theta, error) {
	meta, err := m.metadata(ctx, generatorID)
	if err != nil {
		return nil, nil, err
	}
	_, thetas, err := m.allThetas(ctx, generatorID)
	if err != nil {
		return nil, nil, err
	}
	if len(thetas) == 0 {
		return nil, nil, fmt.Errorf("no models in generator %q", m.generatorName(ctx, generatorID))
	}
	return meta, thetas, nil
}

// ColumnDependenceProbability estimates the probability that two columns
// are dependent: the fraction of models that place both columns in one
// structural block whose row partition actually distinguishes rows.
// A column is trivially dependent on itself. With no models the estimate
// is undefined and reported as NaN.
func (m *Metamodel) ColumnDependenceProbability(ctx context.Context, generatorID int64, colno0, colno1 int) (float64, error) {
	if colno0 == colno1 {
		return 1, nil
	}
	cc0, err := m.engineColNo(ctx, generatorID, colno0)
	if err != nil {
		return 0, err
	}
	cc1, err := m.engineColNo(ctx, generatorID, colno1)
	if err != nil {
		return 0, err
	}

	_, thetas, err := m.allThetas(ctx, generatorID)
	if err != nil {
		return 0, err
	}
	if len(thetas) == 0 {
		return math.NaN(), nil
	}

	dependent := 0
	for _, theta := range thetas {
		assignments, err := theta.ColumnAssignments()
		if err != nil {
			return 0, err
		}
		if cc0 >= len(assignments) || cc1 >= len(assignments) {
			return 0, fmt.Errorf("column partition covers %d columns, need %d and %d",
				len(assignments), cc0, cc1)
		}
		view := assignments[cc0]
		if view != assignments[cc1] {
			continue
		}
		// Sharing a block only matters if the block's row partition has
		// more than one cluster; a single-cluster block carries no
		// dependence signal.
		if view < len(theta.Assignments) && distinctCount(theta.Assignments[view]) > 1 {
			dependent++
		}
	}
	return float64(dependent) / float64(len(thetas)), nil
}

func distinctCount(assignments []int) int {
	seen := make(map[int]struct{}, len(assignments))
	for _, a := range assignments {
		seen[a] = struct{}{}
	}
	return len(seen)
}

// ColumnMutualInformation estimates the mutual information between two
// columns, averaging the engine's per-model estimates. The total sample
// budget is split evenly across models, rounding up.
func (m *Metamodel) ColumnMutualInformation(ctx context.Context, generatorID int64, colno0, colno1, numSamples int) (float64, error) {
	if numSamples <= 0 {
		numSamples = defaultMISamples
	}
	cc0, err := m.engineColNo(ctx, generatorID, colno0)
	if err != nil {
		return 0, err
	}
	cc1, err := m.engineColNo(ctx, generatorID, colno1)
	if err != nil {
		return 0, err
	}

	meta, thetas, err := m.queryStates(ctx, generatorID)
	if err != nil {
		return 0, err
	}

	perModel := (numSamples + len(thetas) - 1) / len(thetas)
	result, err := m.engine.MutualInformation(ctx, core.MutualInformationRequest{
		Metadata: meta,
		States:   latentStates(thetas),
		Pair:     [2]int{cc0, cc1},
		Samples:  perModel,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate mutual information: %w", err)
	}
	if len(result.MI) == 0 {
		return 0, fmt.Errorf("engine returned no mutual information estimates")
	}

	sum := 0.0
	for _, mi := range result.MI {
		sum += mi
	}
	return sum / float64(len(result.MI)), nil
}

// ColumnTypicality scores how structurally typical a column is across
// the models.
func (m *Metamodel) ColumnTypicality(ctx context.Context, generatorID int64, colno int) (float64, error) {
	cc, err := m.engineColNo(ctx, generatorID, colno)
	if err != nil {
		return 0, err
	}
	_, thetas, err := m.queryStates(ctx, generatorID)
	if err != nil {
		return 0, err
	}
	return m.engine.ColumnTypicality(ctx, latentStates(thetas), cc)
}

// ColumnValueProbability estimates the marginal probability of observing
// a value in a column. A categorical value absent from the code map has
// probability zero by definition.
func (m *Metamodel) ColumnValueProbability(ctx context.Context, generatorID int64, colno int, value any) (float64, error) {
	cc, err := m.engineColNo(ctx, generatorID, colno)
	if err != nil {
		return 0, err
	}
	meta, thetas, err := m.queryStates(ctx, generatorID)
	if err != nil {
		return 0, err
	}

	code, err := m.encodeValue(ctx, generatorID, meta, colno, value)
	var unknown *core.UnknownCategoricalValueError
	if errors.As(err, &unknown) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	// Queries about hypothetical cells address a row one past the data.
	fakeRow := thetas[0].Rows()
	logp, err := m.engine.PredictiveProbability(ctx, core.ProbabilityRequest{
		Metadata: meta,
		States:   latentStates(thetas),
		Query:    core.Condition{Row: fakeRow, Column: cc, Code: code},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate value probability: %w", err)
	}
	return math.Exp(logp), nil
}

// RowTypicality scores how typical a row is of the table's rows across
// the models.
func (m *Metamodel) RowTypicality(ctx context.Context, generatorID int64, rowid int64) (float64, error) {
	_, thetas, err := m.queryStates(ctx, generatorID)
	if err != nil {
		return 0, err
	}
	return m.engine.RowTypicality(ctx, latentStates(thetas), core.EngineRowID(rowid))
}

// RowSimilarity scores the similarity of two rows with respect to a
// column set. An empty column set means every modelled column.
func (m *Metamodel) RowSimilarity(ctx context.Context, generatorID int64, rowid, targetRowid int64, colnos []int) (float64, error) {
	meta, thetas, err := m.queryStates(ctx, generatorID)
	if err != nil {
		return 0, err
	}

	var ccs []int
	if len(colnos) == 0 {
		ccs = make([]int, len(meta.Columns))
		for i := range ccs {
			ccs[i] = i
		}
	} else {
		ccs = make([]int, len(colnos))
		for i, colno := range colnos {
			cc, err := m.engineColNo(ctx, generatorID, colno)
			if err != nil {
				return 0, err
			}
			ccs[i] = cc
		}
	}

	return m.engine.Similarity(ctx, core.SimilarityRequest{
		Metadata:  meta,
		States:    latentStates(thetas),
		RowIndex:  core.EngineRowID(rowid),
		TargetRow: core.EngineRowID(targetRowid),
		Columns:   ccs,
	})
}

// RowColumnPredictiveProbability estimates the probability of the value
// observed in one cell, given the rest of the table. A missing cell has
// no observed value to score and yields NaN.
func (m *Metamodel) RowColumnPredictiveProbability(ctx context.Context, generatorID int64, rowid int64, colno int) (float64, error) {
	cc, err := m.engineColNo(ctx, generatorID, colno)
	if err != nil {
		return 0, err
	}
	meta, thetas, err := m.queryStates(ctx, generatorID)
	if err != nil {
		return 0, err
	}

	tabname, err := m.store.GeneratorTable(ctx, generatorID)
	if err != nil {
		return 0, err
	}
	name, err := m.store.ColumnName(ctx, generatorID, colno)
	if err != nil {
		return 0, err
	}
	value, err := m.store.ColumnValue(ctx, tabname, name, rowid)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return math.NaN(), nil
	}

	code, err := m.encodeValue(ctx, generatorID, meta, colno, value)
	if err != nil {
		return 0, err
	}
	logp, err := m.engine.PredictiveProbability(ctx, core.ProbabilityRequest{
		Metadata: meta,
		States:   latentStates(thetas),
		Query:    core.Condition{Row: core.EngineRowID(rowid), Column: cc, Code: code},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate predictive probability: %w", err)
	}
	return math.Exp(logp), nil
}

// Infer fills in one cell: an observed value passes through unchanged,
// and a missing value is imputed from the row's observed cells when the
// engine's confidence clears the threshold. Below-threshold imputations
// yield nil.
func (m *Metamodel) Infer(ctx context.Context, generatorID int64, colno int, rowid int64, value any, threshold float64, numSamples int) (any, error) {
	if value != nil {
		return value, nil
	}
	if numSamples <= 0 {
		numSamples = 1
	}

	cc, err := m.engineColNo(ctx, generatorID, colno)
	if err != nil {
		return nil, err
	}
	meta, thetas, err := m.queryStates(ctx, generatorID)
	if err != nil {
		return nil, err
	}

	tabname, err := m.store.GeneratorTable(ctx, generatorID)
	if err != nil {
		return nil, err
	}
	modelled, err := m.modelledColumns(ctx, generatorID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(modelled))
	for i, col := range modelled {
		names[i] = col.Name
	}
	row, err := m.store.RowValues(ctx, tabname, names, rowid)
	if err != nil {
		return nil, err
	}

	engineRow := core.EngineRowID(rowid)
	var conditions []core.Condition
	for i, col := range modelled {
		if i == cc || row[i] == nil {
			continue
		}
		code, err := m.encodeValue(ctx, generatorID, meta, col.ColNo, row[i])
		if err != nil {
			return nil, err
		}
		if math.IsNaN(code) {
			continue
		}
		conditions = append(conditions, core.Condition{Row: engineRow, Column: i, Code: code})
	}

	imp, err := m.engine.ImputeAndConfidence(ctx, core.ImputeRequest{
		Metadata:   meta,
		States:     latentStates(thetas),
		Conditions: conditions,
		Target:     core.Target{Row: engineRow, Column: cc},
		Samples:    numSamples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to impute value: %w", err)
	}
	if imp.Confidence < threshold {
		return nil, nil
	}
	return m.decodeValue(ctx, generatorID, meta, colno, imp.Code)
}

// Simulate draws joint samples of a column set for a hypothetical row
// subject to the given constraints, returning raw domain values.
func (m *Metamodel) Simulate(ctx context.Context, generatorID int64, constraints []core.Constraint, colnos []int, numPredictions int) ([][]any, error) {
	meta, thetas, err := m.queryStates(ctx, generatorID)
	if err != nil {
		return nil, err
	}
	tabname, err := m.store.GeneratorTable(ctx, generatorID)
	if err != nil {
		return nil, err
	}
	maxRowid, err := m.store.MaxRowID(ctx, tabname)
	if err != nil {
		return nil, err
	}
	// The hypothetical row sits one past the last table row.
	fakeRow := core.EngineRowID(maxRowid + 1)

	conditions := make([]core.Condition, len(constraints))
	for i, c := range constraints {
		cc, err := m.engineColNo(ctx, generatorID, c.ColNo)
		if err != nil {
			return nil, err
		}
		code, err := m.encodeValue(ctx, generatorID, meta, c.ColNo, c.Value)
		if err != nil {
			return nil, err
		}
		conditions[i] = core.Condition{Row: fakeRow, Column: cc, Code: code}
	}

	targets := make([]core.Target, len(colnos))
	for i, colno := range colnos {
		cc, err := m.engineColNo(ctx, generatorID, colno)
		if err != nil {
			return nil, err
		}
		targets[i] = core.Target{Row: fakeRow, Column: cc}
	}

	samples, err := m.engine.PredictiveSample(ctx, core.SampleRequest{
		Metadata:   meta,
		States:     latentStates(thetas),
		Conditions: conditions,
		Targets:    targets,
		Count:      numPredictions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to simulate rows: %w", err)
	}

	rows := make([][]any, len(samples))
	for i, sample := range samples {
		if len(sample) != len(colnos) {
			return nil, fmt.Errorf("engine returned %d cells for %d targets", len(sample), len(colnos))
		}
		rows[i] = make([]any, len(colnos))
		for j, colno := range colnos {
			value, err := m.decodeValue(ctx, generatorID, meta, colno, sample[j])
			if err != nil {
				return nil, err
			}
			rows[i][j] = value
		}
	}
	return rows, nil
}
