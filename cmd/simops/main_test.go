package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simopsbot/internal/domain/journal"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestParseSeeds(t *testing.T) {
	got, err := parseSeeds("0:4")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2, 3}, got)

	got, err = parseSeeds(" 7, 3 ,9 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 3, 9}, got)

	got, err = parseSeeds("3,3,1,3")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, got)

	got, err = parseSeeds("10:510")
	require.NoError(t, err)
	assert.Len(t, got, 500)

	for _, bad := range []string{"", "5:5", "a:3", "1,x", " , ", "0:501", "0:9223372036854775807", "-9223372036854775808:9223372036854775807"} {
		_, err := parseSeeds(bad)
		assert.Error(t, err, bad)
	}
}

func TestRunCommand_PrintsResultAndWritesJournal(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "run", "--seed", "3", "--profile", "verified", "--out", dir)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &result))
	assert.Equal(t, journal.MakeRunID(3, "verified"), result["run_id"])

	path := filepath.Join(dir, journal.FileName(3, "verified"))
	assert.Equal(t, path, result["journal_path"])
	_, err = os.Stat(path)
	require.NoError(t, err)

	pretty, err := execute(t, "journal", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pretty, "[step 01] step_start"), pretty)
	assert.Contains(t, pretty, "] final  id=")

	summary, err := execute(t, "replay", "--dir", dir, journal.MakeRunID(3, "verified"))
	require.NoError(t, err)
	var s map[string]any
	require.NoError(t, json.Unmarshal([]byte(summary), &s))
	assert.Equal(t, result["final_summary"], s["final_summary"])
}

func TestRunCommand_RejectsUnknownProfile(t *testing.T) {
	_, err := execute(t, "run", "--seed", "1", "--profile", "yolo", "--out", t.TempDir())
	require.Error(t, err)
}

func TestEvalCommand_WritesOutputs(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "eval", "--profile", "guarded", "--seeds", "0:3", "--out", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "# Eval Summary (guarded)")
	assert.Contains(t, out, "Gate passed: ")
	for _, name := range []string{"eval_summary.json", "eval_summary.md", "results.jsonl"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
	journals, err := os.ReadDir(filepath.Join(dir, "journals"))
	require.NoError(t, err)
	assert.Len(t, journals, 3)
}

func TestJournalCommand_ReportsBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0o600))

	_, err := execute(t, "journal", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.jsonl:1")
}

func TestRedteamCommand(t *testing.T) {
	out, err := execute(t, "redteam", "--seed", "4", "--n", "3")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	again, err := execute(t, "redteam", "--seed", "4", "--n", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	file := filepath.Join(t.TempDir(), "cases", "redteam.txt")
	msg, err := execute(t, "redteam", "--n", "2", "--out", file)
	require.NoError(t, err)
	assert.Equal(t, "Wrote 2 cases to "+file+"\n", msg)
}

func TestMigrateCommand_NeedsDatabase(t *testing.T) {
	t.Setenv("SIMOPS_DB_DSN", "")
	_, err := execute(t, "migrate")
	require.Error(t, err)
}
