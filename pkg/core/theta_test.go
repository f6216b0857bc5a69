package core

import (
	"encoding/json"
	"testing"
)

func TestThetaRoundTrip(t *testing.T) {
	theta := &Theta{
		Structure:      json.RawMessage(`{"column_partition":{"assignments":[0,1,0]}}`),
		Assignments:    [][]int{{0, 0, 1}, {1, 0, 0}},
		Iterations:     7,
		ColumnCRPAlpha: []float64{1, 1.5},
		LogScore:       []float64{-10, -9.5},
		NumViews:       []int{2, 2},
		Config:         DefaultModelConfig(),
	}

	blob, err := EncodeTheta(theta)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeTheta(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Version != ThetaVersion {
		t.Errorf("version = %d, want %d", got.Version, ThetaVersion)
	}
	if got.Iterations != 7 {
		t.Errorf("iterations = %d, want 7", got.Iterations)
	}
	if got.Rows() != 3 {
		t.Errorf("rows = %d, want 3", got.Rows())
	}
	if len(got.Assignments) != 2 {
		t.Errorf("assignments views = %d, want 2", len(got.Assignments))
	}
	if got.Config.Initialization != "from_the_prior" {
		t.Errorf("initialization = %q", got.Config.Initialization)
	}
}

func TestDecodeThetaRejectsUnknownVersion(t *testing.T) {
	blob := []byte(`{"version":99,"structure":{},"assignments":[]}`)
	if _, err := DecodeTheta(blob); err == nil {
		t.Fatal("expected version error")
	}
}

func TestThetaColumnAssignments(t *testing.T) {
	theta := &Theta{
		Structure: json.RawMessage(`{"column_partition":{"assignments":[0,0,1]},"other":123}`),
	}
	got, err := theta.ColumnAssignments()
	if err != nil {
		t.Fatalf("column assignments: %v", err)
	}
	want := []int{0, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("assignment[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestThetaLatentRoundTrip(t *testing.T) {
	theta := &Theta{}
	state := LatentState{
		Structure:   json.RawMessage(`{"a":1}`),
		Assignments: [][]int{{0, 1}},
	}
	theta.SetLatent(state)
	got := theta.Latent()
	if string(got.Structure) != `{"a":1}` {
		t.Errorf("structure = %s", got.Structure)
	}
	if got.Assignments[0][1] != 1 {
		t.Errorf("assignments = %v", got.Assignments)
	}
}

func TestEngineRowID(t *testing.T) {
	if got := EngineRowID(1); got != 0 {
		t.Errorf("EngineRowID(1) = %d, want 0", got)
	}
	if got := EngineRowID(42); got != 41 {
		t.Errorf("EngineRowID(42) = %d, want 41", got)
	}
}

func TestStatTypeModelled(t *testing.T) {
	tests := []struct {
		stattype StatType
		want     bool
	}{
		{StatCategorical, true},
		{StatCyclic, true},
		{StatNumerical, true},
		{StatIgnore, false},
		{StatKey, false},
		{StatType("bogus"), false},
	}
	for _, tt := range tests {
		if got := tt.stattype.Modelled(); got != tt.want {
			t.Errorf("%q.Modelled() = %v, want %v", tt.stattype, got, tt.want)
		}
	}
}

func TestDistTypeFor(t *testing.T) {
	tests := []struct {
		stattype StatType
		want     DistType
		ok       bool
	}{
		{StatNumerical, DistNormalInverseGamma, true},
		{StatCategorical, DistSymmetricDirichletDiscrete, true},
		{StatCyclic, DistVonMises, true},
		{StatIgnore, DistIgnore, true},
		{StatKey, DistKey, true},
		{StatType("bogus"), "", false},
	}
	for _, tt := range tests {
		got, ok := DistTypeFor(tt.stattype)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DistTypeFor(%q) = (%q, %v), want (%q, %v)", tt.stattype, got, ok, tt.want, tt.ok)
		}
	}
}
