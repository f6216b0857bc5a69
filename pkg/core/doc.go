// Package core defines the shared domain types and contracts for the
// BayesDB metamodel layer: statistical type and distribution catalogues,
// the engine-facing metadata document, the persisted per-model latent
// state record, the inference-engine capability interface, and the error
// taxonomy surfaced by metamodel operations.
//
// The package has no dependency on the storage layer; concrete
// implementations live under internal/.
package core
