// Package crosscat implements the crosscat metamodel binding: the
// stateful adapter between the BayesDB relational store and an external
// crosscat-style inference engine. It keeps three representations
// consistent over a model's lifetime: the raw data in the user table, the
// codified numeric matrix the engine consumes, and the engine's persisted
// latent state for every trained model.
//
// The inference engine itself is an injected core.Engine; this package
// implements no inference and performs no concurrency of its own. Every
// state-mutating operation runs inside one store savepoint.
package crosscat

import (
	"context"
	"io"
	"log/slog"

	"github.com/aiyi2099/bayeslite/internal/store"
	"github.com/aiyi2099/bayeslite/pkg/core"
)

// MetamodelName identifies this binding in the metamodel catalogue.
const MetamodelName = "crosscat"

// Metamodel is the crosscat binding over one store session.
type Metamodel struct {
	store  *store.Store
	engine core.Engine
	logger *slog.Logger
}

// New creates a crosscat metamodel bound to a store session and an
// inference engine. A nil logger discards all output.
func New(st *store.Store, engine core.Engine, logger *slog.Logger) *Metamodel {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Metamodel{store: st, engine: engine, logger: logger}
}

// Name returns the binding's catalogue name.
func (m *Metamodel) Name() string {
	return MetamodelName
}

// generatorName resolves a generator id for error context, falling back
// to the numeric id when the lookup itself fails.
func (m *Metamodel) generatorName(ctx context.Context, generatorID int64) string {
	name, err := m.store.GeneratorName(ctx, generatorID)
	if err != nil {
		return "?"
	}
	return name
}

var _ core.Metamodel = (*Metamodel)(nil)
