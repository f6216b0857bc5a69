package testutil

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// FakeEngine is a deterministic core.Engine for tests. It performs no
// inference: structural output is driven by its fields, query answers
// are fixed constants, and every call is counted. The zero value places
// every column in one view and every row in one cluster.
type FakeEngine struct {
	// Partition assigns each engine column to a view at Initialize time.
	// Nil means all columns share view 0.
	Partition []int
	// Clusters holds the per-view row cluster assignments installed at
	// Initialize time. Nil means one view of all-zero assignments.
	Clusters [][]int

	LogP       float64         // PredictiveProbability answer
	SampleCode float64         // every sampled cell
	Imputed    core.Imputation // ImputeAndConfidence answer
	MI         float64         // per-model mutual information estimate
	Typicality float64         // column and row typicality answer
	Sim        float64         // Similarity answer

	ErrInitialize error
	ErrAnalyze    error
	ErrInsert     error

	Initializes  int
	Analyzes     int
	Inserts      int
	Imputes      int
	AnalyzeSteps []int // batch sizes in call order
}

func (e *FakeEngine) structure(columns int) (json.RawMessage, error) {
	partition := e.Partition
	if partition == nil {
		partition = make([]int, columns)
	}
	if len(partition) != columns {
		return nil, fmt.Errorf("partition covers %d columns, metadata has %d", len(partition), columns)
	}
	return json.Marshal(map[string]any{
		"column_partition": map[string]any{"assignments": partition},
	})
}

func (e *FakeEngine) assignments(rows int) [][]int {
	if e.Clusters != nil {
		out := make([][]int, len(e.Clusters))
		for i, view := range e.Clusters {
			out[i] = append([]int(nil), view...)
		}
		return out
	}
	return [][]int{make([]int, rows)}
}

func (e *FakeEngine) Initialize(ctx context.Context, req core.InitializeRequest) ([]core.LatentState, error) {
	e.Initializes++
	if e.ErrInitialize != nil {
		return nil, e.ErrInitialize
	}
	structure, err := e.structure(len(req.Metadata.Columns))
	if err != nil {
		return nil, err
	}
	states := make([]core.LatentState, req.Models)
	for i := range states {
		states[i] = core.LatentState{
			Structure:   structure,
			Assignments: e.assignments(len(req.Data)),
		}
	}
	return states, nil
}

func (e *FakeEngine) Analyze(ctx context.Context, req core.AnalyzeRequest) (*core.AnalyzeResult, error) {
	e.Analyzes++
	e.AnalyzeSteps = append(e.AnalyzeSteps, req.Steps)
	if e.ErrAnalyze != nil {
		return nil, e.ErrAnalyze
	}
	result := &core.AnalyzeResult{
		States:      req.States,
		Diagnostics: make([]core.Diagnostics, len(req.States)),
	}
	for i := range result.Diagnostics {
		d := core.Diagnostics{}
		for step := 0; step < req.Steps; step++ {
			d.ColumnCRPAlpha = append(d.ColumnCRPAlpha, 1)
			d.LogScore = append(d.LogScore, -1)
			d.NumViews = append(d.NumViews, len(req.States[i].Assignments))
		}
		result.Diagnostics[i] = d
	}
	return result, nil
}

func (e *FakeEngine) Insert(ctx context.Context, req core.InsertRequest) (*core.InsertResult, error) {
	e.Inserts++
	if e.ErrInsert != nil {
		return nil, e.ErrInsert
	}
	states := make([]core.LatentState, len(req.States))
	for i, state := range req.States {
		extended := make([][]int, len(state.Assignments))
		for v, view := range state.Assignments {
			extended[v] = append(append([]int(nil), view...), make([]int, len(req.Rows))...)
		}
		states[i] = core.LatentState{Structure: state.Structure, Assignments: extended}
	}
	data := append(append(core.DataMatrix{}, req.Data...), req.Rows...)
	return &core.InsertResult{States: states, Data: data}, nil
}

func (e *FakeEngine) PredictiveProbability(ctx context.Context, req core.ProbabilityRequest) (float64, error) {
	return e.LogP, nil
}

func (e *FakeEngine) PredictiveSample(ctx context.Context, req core.SampleRequest) ([][]float64, error) {
	samples := make([][]float64, req.Count)
	for i := range samples {
		samples[i] = make([]float64, len(req.Targets))
		for j := range samples[i] {
			samples[i][j] = e.SampleCode
		}
	}
	return samples, nil
}

func (e *FakeEngine) ImputeAndConfidence(ctx context.Context, req core.ImputeRequest) (*core.Imputation, error) {
	e.Imputes++
	imp := e.Imputed
	return &imp, nil
}

func (e *FakeEngine) MutualInformation(ctx context.Context, req core.MutualInformationRequest) (*core.MutualInformationResult, error) {
	result := &core.MutualInformationResult{}
	for range req.States {
		result.MI = append(result.MI, e.MI)
		result.Linfoot = append(result.Linfoot, e.MI)
	}
	return result, nil
}

func (e *FakeEngine) ColumnTypicality(ctx context.Context, states []core.LatentState, colIndex int) (float64, error) {
	return e.Typicality, nil
}

func (e *FakeEngine) RowTypicality(ctx context.Context, states []core.LatentState, rowIndex int) (float64, error) {
	return e.Typicality, nil
}

func (e *FakeEngine) Similarity(ctx context.Context, req core.SimilarityRequest) (float64, error) {
	return e.Sim, nil
}

var _ core.Engine = (*FakeEngine)(nil)
