package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiyi2099/bayeslite/internal/config"
	"github.com/aiyi2099/bayeslite/internal/store"
	"github.com/aiyi2099/bayeslite/pkg/core"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StatePath: filepath.Join(t.TempDir(), "state.db"),
		Output:    config.DefaultOutput,
		Analyze:   config.AnalyzeConfig{Iterations: 1},
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3", "abc123")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)
	assert.Contains(t, buf.String(), "1.2.3")
	assert.Contains(t, buf.String(), "abc123")
}

func TestInitCommand(t *testing.T) {
	cfg := testConfig(t)

	cmd := NewInitCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetContext(WithConfig(context.Background(), cfg))
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Contains(t, buf.String(), "Initialized store")

	// Re-running against an existing store is fine.
	require.NoError(t, cmd.RunE(cmd, nil))
}

func TestStatusCommand(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	initCmd := NewInitCommand()
	initCmd.SetOut(&bytes.Buffer{})
	initCmd.SetContext(WithConfig(ctx, cfg))
	require.NoError(t, initCmd.RunE(initCmd, nil))

	statusCmd := NewStatusCommand()
	var buf bytes.Buffer
	statusCmd.SetOut(&buf)
	statusCmd.SetContext(WithConfig(ctx, cfg))
	require.NoError(t, statusCmd.RunE(statusCmd, nil))
	assert.Contains(t, buf.String(), "(no generators)")

	// Register a generator directly and check it shows up.
	st := store.New(nil)
	require.NoError(t, st.Open(ctx, cfg.StatePath))
	_, err := st.Exec(ctx, `CREATE TABLE people (id TEXT, age REAL)`)
	require.NoError(t, err)
	require.NoError(t, st.DescribeTable(ctx, "people"))
	genID, err := st.CreateGenerator(ctx, "people_g", "people", "crosscat", []core.GeneratorColumn{
		{ColNo: 0, Name: "id", StatType: core.StatKey},
		{ColNo: 1, Name: "age", StatType: core.StatNumerical},
	})
	require.NoError(t, err)
	require.NoError(t, st.AddModel(ctx, genID, 0))
	require.NoError(t, st.Close())

	buf.Reset()
	statusCmd.SetOut(&buf)
	require.NoError(t, statusCmd.RunE(statusCmd, nil))
	assert.Contains(t, buf.String(), "people_g")
	assert.Contains(t, buf.String(), "(1 generators)")
}

func TestQueryCommand(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output = "csv"
	ctx := context.Background()

	initCmd := NewInitCommand()
	initCmd.SetOut(&bytes.Buffer{})
	initCmd.SetContext(WithConfig(ctx, cfg))
	require.NoError(t, initCmd.RunE(initCmd, nil))

	queryCmd := NewQueryCommand()
	var buf bytes.Buffer
	queryCmd.SetOut(&buf)
	queryCmd.SetContext(WithConfig(ctx, cfg))
	require.NoError(t, queryCmd.RunE(queryCmd,
		[]string{"SELECT name FROM bayesdb_stattype ORDER BY name"}))
	assert.Contains(t, buf.String(), "categorical")
	assert.Contains(t, buf.String(), "numerical")
}
