package core

import (
	"context"
	"encoding/json"
)

// DataMatrix is the codified table submitted to the inference engine: one
// row per table row in insertion order, one column per modelled column in
// engine column order. Missing values are NaN.
type DataMatrix [][]float64

// LatentState is one model's latent state pair as exchanged with the
// engine: the opaque structural state and the typed row assignments.
type LatentState struct {
	Structure   json.RawMessage
	Assignments [][]int
}

// Diagnostics carries the per-iteration traces the engine reports for one
// model during an analyze batch.
type Diagnostics struct {
	ColumnCRPAlpha []float64
	LogScore       []float64
	NumViews       []int
}

// Condition fixes one cell (row, engine column) to a code when querying.
type Condition struct {
	Row    int
	Column int
	Code   float64
}

// Target names one cell (row, engine column) to query or sample.
type Target struct {
	Row    int
	Column int
}

// InitializeRequest asks the engine for fresh latent states for a batch of
// models over the full codified data matrix.
type InitializeRequest struct {
	Metadata *Metadata
	Data     DataMatrix
	Models   int
	Config   ModelConfig
}

// AnalyzeRequest runs Steps update iterations over a batch of models.
type AnalyzeRequest struct {
	Metadata *Metadata
	Data     DataMatrix
	States   []LatentState
	Kernels  []string
	Steps    int
}

// AnalyzeResult returns the updated states and, per state, the diagnostic
// traces for the executed steps.
type AnalyzeResult struct {
	States      []LatentState
	Diagnostics []Diagnostics
}

// InsertRequest extends every state's latent row coverage with new
// codified rows.
type InsertRequest struct {
	Metadata *Metadata
	Data     DataMatrix
	States   []LatentState
	Rows     DataMatrix
}

// InsertResult returns the updated states and the engine's view of the
// full data matrix including the inserted rows, used by the caller as a
// consistency check.
type InsertResult struct {
	States []LatentState
	Data   DataMatrix
}

// ProbabilityRequest asks for the log-probability of one hypothesized cell
// value, aggregated across all supplied states.
type ProbabilityRequest struct {
	Metadata   *Metadata
	States     []LatentState
	Conditions []Condition
	Query      Condition
}

// SampleRequest draws Count joint samples of the target cells subject to
// the conditions.
type SampleRequest struct {
	Metadata   *Metadata
	States     []LatentState
	Conditions []Condition
	Targets    []Target
	Count      int
}

// ImputeRequest asks for an imputed code and a confidence score for one
// cell, conditioned on the row's observed cells.
type ImputeRequest struct {
	Metadata   *Metadata
	States     []LatentState
	Conditions []Condition
	Target     Target
	Samples    int
}

// Imputation is the engine's imputed code and its confidence in [0, 1].
type Imputation struct {
	Code       float64
	Confidence float64
}

// MutualInformationRequest estimates the mutual information of a column
// pair with Samples draws per model.
type MutualInformationRequest struct {
	Metadata *Metadata
	States   []LatentState
	Pair     [2]int
	Samples  int
}

// MutualInformationResult holds one estimate per model plus the companion
// Linfoot statistic the engine reports alongside it.
type MutualInformationResult struct {
	MI      []float64
	Linfoot []float64
}

// SimilarityRequest scores how similar a row is to a target row with
// respect to a set of engine columns.
type SimilarityRequest struct {
	Metadata  *Metadata
	States    []LatentState
	RowIndex  int
	TargetRow int
	Columns   []int
}

// Engine is the capability interface of the external probabilistic
// inference engine. Implementations are pure functions of their inputs
// apart from engine-seeded randomness; they may parallelize internally.
// The metamodel always awaits an engine call before persisting results, so
// that parallelism is not a concurrency hazard for the store.
type Engine interface {
	Initialize(ctx context.Context, req InitializeRequest) ([]LatentState, error)
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error)
	Insert(ctx context.Context, req InsertRequest) (*InsertResult, error)
	PredictiveProbability(ctx context.Context, req ProbabilityRequest) (float64, error)
	PredictiveSample(ctx context.Context, req SampleRequest) ([][]float64, error)
	ImputeAndConfidence(ctx context.Context, req ImputeRequest) (*Imputation, error)
	MutualInformation(ctx context.Context, req MutualInformationRequest) (*MutualInformationResult, error)
	ColumnTypicality(ctx context.Context, states []LatentState, colIndex int) (float64, error)
	RowTypicality(ctx context.Context, states []LatentState, rowIndex int) (float64, error)
	Similarity(ctx context.Context, req SimilarityRequest) (float64, error)
}
