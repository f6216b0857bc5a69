package core

import (
	"context"
	"time"
)

// AnalyzeOptions bounds one analysis run. ModelNos nil targets every model
// of the generator. At least one of Iterations and MaxDuration must be
// positive; an unbounded loop is rejected as a configuration error.
type AnalyzeOptions struct {
	ModelNos    []int
	Iterations  int
	MaxDuration time.Duration
}

// Metamodel is the capability set a generative-model binding exposes to
// the host database framework. Any alternative inference-engine binding
// must satisfy this contract to be substitutable.
type Metamodel interface {
	// Name identifies the binding in the metamodel catalogue.
	Name() string

	// Register idempotently installs the binding's persisted schema.
	Register(ctx context.Context) error

	// CreateGenerator builds and persists the metadata for a generator's
	// modelled-column set.
	CreateGenerator(ctx context.Context, generatorID int64, columns []GeneratorColumn) error

	// DropGenerator deletes the generator's models and metadata.
	DropGenerator(ctx context.Context, generatorID int64) error

	// Initialize creates one model per requested model number.
	Initialize(ctx context.Context, generatorID int64, modelnos []int, config *ModelConfig) error

	// Analyze runs a bounded training loop, checkpointing state after each
	// step batch.
	Analyze(ctx context.Context, generatorID int64, opts AnalyzeOptions) error

	// InsertMany appends rows to the underlying table and extends every
	// model's latent state to cover them.
	InsertMany(ctx context.Context, generatorID int64, rows [][]any) error

	ColumnDependenceProbability(ctx context.Context, generatorID int64, colno0, colno1 int) (float64, error)
	ColumnMutualInformation(ctx context.Context, generatorID int64, colno0, colno1, numSamples int) (float64, error)
	ColumnTypicality(ctx context.Context, generatorID int64, colno int) (float64, error)
	ColumnValueProbability(ctx context.Context, generatorID int64, colno int, value any) (float64, error)
	RowTypicality(ctx context.Context, generatorID int64, rowid int64) (float64, error)
	RowSimilarity(ctx context.Context, generatorID int64, rowid, targetRowid int64, colnos []int) (float64, error)
	RowColumnPredictiveProbability(ctx context.Context, generatorID int64, rowid int64, colno int) (float64, error)
	Infer(ctx context.Context, generatorID int64, colno int, rowid int64, value any, threshold float64, numSamples int) (any, error)
	Simulate(ctx context.Context, generatorID int64, constraints []Constraint, colnos []int, numPredictions int) ([][]any, error)
}
