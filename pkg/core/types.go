package core

// StatType is the statistical type of a modelled column as declared by the
// host database framework.
type StatType string

// Statistical types recognized by the crosscat metamodel.
const (
	StatCategorical StatType = "categorical"
	StatCyclic      StatType = "cyclic"
	StatIgnore      StatType = "ignore"
	StatKey         StatType = "key"
	StatNumerical   StatType = "numerical"
)

// Modelled reports whether columns of this stattype are submitted to the
// inference engine. Ignore and key columns are tracked for bookkeeping but
// consume no engine column index.
func (s StatType) Modelled() bool {
	switch s {
	case StatCategorical, StatCyclic, StatNumerical:
		return true
	default:
		return false
	}
}

// DistType is the distribution family the engine models a column with.
type DistType string

// Distribution families, one default per stattype, plus the non-modelled
// markers for ignore and key columns.
const (
	DistNormalInverseGamma         DistType = "normal_inverse_gamma"
	DistSymmetricDirichletDiscrete DistType = "symmetric_dirichlet_discrete"
	DistVonMises                   DistType = "vonmises"
	DistIgnore                     DistType = "ignore"
	DistKey                        DistType = "key"
)

// DistTypeFor returns the default distribution family for a stattype.
// The second result is false for unrecognized stattypes.
func DistTypeFor(s StatType) (DistType, bool) {
	switch s {
	case StatNumerical:
		return DistNormalInverseGamma, true
	case StatCategorical:
		return DistSymmetricDirichletDiscrete, true
	case StatCyclic:
		return DistVonMises, true
	case StatIgnore:
		return DistIgnore, true
	case StatKey:
		return DistKey, true
	default:
		return "", false
	}
}

// GeneratorColumn describes one column in a generator's modelled-column
// set: its database column number, its name, and its declared stattype.
type GeneratorColumn struct {
	ColNo    int
	Name     string
	StatType StatType
}

// ModelConfig is the training configuration recorded with each model at
// initialization time.
type ModelConfig struct {
	// KernelList selects the subset of engine update kernels to run.
	// Empty means all kernels.
	KernelList []string `json:"kernel_list"`
	// Initialization is the engine strategy for the initial column
	// partition.
	Initialization string `json:"initialization"`
	// RowInitialization is the engine strategy for the initial row
	// partitions.
	RowInitialization string `json:"row_initialization"`
}

// DefaultModelConfig returns the configuration used when a caller supplies
// none: every kernel enabled, prior-driven initialization.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		KernelList:        []string{},
		Initialization:    "from_the_prior",
		RowInitialization: "from_the_prior",
	}
}

// ColumnMetadata is the engine-facing description of one column: its
// distribution family and, for categorical columns, the bidirectional
// category code map. Codes are serialized as decimal strings because JSON
// object keys are strings.
type ColumnMetadata struct {
	ModelType DistType `json:"modeltype"`
	// ValueToCode maps a raw categorical value to its integer code.
	ValueToCode map[string]int `json:"value_to_code"`
	// CodeToValue maps a code (as a decimal string) back to the raw value.
	CodeToValue map[string]string `json:"code_to_value"`
}

// UnmodelledColumn carries the metadata of an ignore or key column. These
// are recorded for symmetry with modelled columns but carry no engine
// column index and are never submitted to the inference engine.
type UnmodelledColumn struct {
	ColNo    int            `json:"colno"`
	Name     string         `json:"name"`
	Metadata ColumnMetadata `json:"metadata"`
}

// Metadata is the per-generator metadata document (M_c) consumed by the
// inference engine. Columns is indexed by the dense engine column number
// (cc_colno) and covers modelled columns only.
type Metadata struct {
	NameToIdx  map[string]int     `json:"name_to_idx"`
	IdxToName  map[string]string  `json:"idx_to_name"`
	Columns    []ColumnMetadata   `json:"column_metadata"`
	Unmodelled []UnmodelledColumn `json:"unmodelled_metadata,omitempty"`
}

// Constraint fixes one column of a hypothetical row to a raw domain value
// when simulating.
type Constraint struct {
	ColNo int
	Value any
}

// EngineRowID converts a 1-based database row id to the engine's 0-based
// dense row index.
func EngineRowID(rowid int64) int {
	return int(rowid - 1)
}
