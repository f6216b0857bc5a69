package core

import (
	"encoding/json"
	"fmt"
)

// ThetaVersion is the current serialization version of the theta record.
const ThetaVersion = 1

// Theta is the persisted latent state of one trained model instance. The
// structural state is opaque engine output; the row assignments are kept
// typed because the metamodel inspects them for dependence queries and for
// deriving the engine-visible row count.
type Theta struct {
	Version int `json:"version"`
	// Structure is the engine's structural/hyperparameter state (X_L),
	// opaque to this layer except for the column partition.
	Structure json.RawMessage `json:"structure"`
	// Assignments is the engine's per-row cluster assignment state (X_D),
	// one slice per structural block, one entry per row.
	Assignments [][]int `json:"assignments"`
	// Iterations counts analysis steps applied to this model. It is
	// monotonically non-decreasing.
	Iterations     int         `json:"iterations"`
	ColumnCRPAlpha []float64   `json:"column_crp_alpha"`
	LogScore       []float64   `json:"logscore"`
	NumViews       []int       `json:"num_views"`
	Config         ModelConfig `json:"model_config"`
}

// EncodeTheta serializes a theta record, stamping the current version.
func EncodeTheta(t *Theta) ([]byte, error) {
	t.Version = ThetaVersion
	blob, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode theta: %w", err)
	}
	return blob, nil
}

// DecodeTheta deserializes a theta record and checks its version.
func DecodeTheta(blob []byte) (*Theta, error) {
	var t Theta
	if err := json.Unmarshal(blob, &t); err != nil {
		return nil, fmt.Errorf("decode theta: %w", err)
	}
	if t.Version != ThetaVersion {
		return nil, fmt.Errorf("decode theta: unsupported version %d", t.Version)
	}
	return &t, nil
}

// Latent returns the engine-facing latent state pair.
func (t *Theta) Latent() LatentState {
	return LatentState{Structure: t.Structure, Assignments: t.Assignments}
}

// SetLatent replaces the latent state pair with updated engine output.
func (t *Theta) SetLatent(s LatentState) {
	t.Structure = s.Structure
	t.Assignments = s.Assignments
}

// Rows returns the number of rows covered by this model's assignment
// state.
func (t *Theta) Rows() int {
	if len(t.Assignments) == 0 {
		return 0
	}
	return len(t.Assignments[0])
}

// structuralSummary is the fragment of the structural state this layer
// understands: the partition of columns into structural blocks.
type structuralSummary struct {
	ColumnPartition struct {
		Assignments []int `json:"assignments"`
	} `json:"column_partition"`
}

// ColumnAssignments decodes the structural column partition: for each
// engine column index, the structural block it belongs to.
func (t *Theta) ColumnAssignments() ([]int, error) {
	var s structuralSummary
	if err := json.Unmarshal(t.Structure, &s); err != nil {
		return nil, fmt.Errorf("decode column partition: %w", err)
	}
	return s.ColumnPartition.Assignments, nil
}
