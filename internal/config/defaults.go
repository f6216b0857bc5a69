package config

// Default configuration values.
const (
	DefaultStateFile      = ".bayeslite/state.db"
	DefaultOutput         = "table"
	DefaultInitialization = "from_the_prior"
	DefaultIterations     = 1
)

// Defaults returns the default configuration map, the lowest layer of
// the loader's precedence chain.
func Defaults() map[string]any {
	return map[string]any{
		"state_path":               DefaultStateFile,
		"verbose":                  false,
		"output":                   DefaultOutput,
		"model.initialization":     DefaultInitialization,
		"model.row_initialization": DefaultInitialization,
		"analyze.iterations":       DefaultIterations,
	}
}
