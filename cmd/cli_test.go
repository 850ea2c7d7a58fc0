package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const salesCSV = "region,revenue,cost,day\neu,100,50,2024-01-03\nus,300,100,2024-01-01\neu,200,50,\n"

// runCmd executes the root command with args and returns its output.
// Flag values persist between Execute calls, so every flag is reset first.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TABLOOM_PLANNER_PROVIDER", "")
	return home
}

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestAnalyze_PlanFileToJSON(t *testing.T) {
	home := isolate(t)
	data := writeFile(t, filepath.Join(home, "sales.csv"), salesCSV)
	plan := writeFile(t, filepath.Join(home, "plan.yaml"), "total:\n  metrics: [sum, avg]\n")
	out := filepath.Join(home, "out", "sales.json")

	stdout, err := runCmd(t, "analyze", data, "--plan", plan, "--targets", "revenue", "-f", "json", "-o", out)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "✓ Wrote analysis to")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	js := string(b)
	assert.Equal(t, "sales.csv", gjson.Get(js, "name").String())
	assert.Equal(t, int64(3), gjson.Get(js, "recordCount").Int())
	assert.Equal(t, 600.0, gjson.Get(js, "metrics.fields.revenue.focus.total.sum").Float())
	assert.Equal(t, 200.0, gjson.Get(js, "metrics.fields.revenue.focus.total.avg").Float())
	assert.Equal(t, "sales", gjson.Get(js, "businessContext.domain").String())
}

func TestAnalyze_NoPlannerPrintsMarkdown(t *testing.T) {
	home := isolate(t)
	data := writeFile(t, filepath.Join(home, "sales.csv"), salesCSV)

	stdout, err := runCmd(t, "analyze", data, "--focus", "growth")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[DATASET SUMMARY]")
	assert.Contains(t, stdout, "File: sales.csv")
	assert.Contains(t, stdout, "unsupported focus areas")
}

func TestAnalyze_RejectsBadFlags(t *testing.T) {
	home := isolate(t)
	data := writeFile(t, filepath.Join(home, "sales.csv"), salesCSV)

	_, err := runCmd(t, "analyze", data, "--format", "pdf")
	assert.ErrorContains(t, err, "unsupported --format")
	_, err = runCmd(t, "analyze", data, "--depth", "deep")
	assert.ErrorContains(t, err, "unknown depth")
	_, err = runCmd(t, "analyze", data, "--delimiter", "|")
	assert.ErrorContains(t, err, "unsupported --delimiter")
	_, err = runCmd(t, "analyze", filepath.Join(home, "missing.csv"))
	assert.Error(t, err)
}

func TestAnalyzeBatch_WritesOneReportPerFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, "in", "a.csv"), salesCSV)
	writeFile(t, filepath.Join(home, "in", "b.json"), `[{"x":1,"y":2},{"x":2,"y":4},{"x":3,"y":6}]`)
	// same stem as a.csv, and same base name in another directory
	writeFile(t, filepath.Join(home, "in", "a.json"), `[{"z":1},{"z":2}]`)
	writeFile(t, filepath.Join(home, "in2", "a.csv"), "k,n\nx,1\ny,2\n")
	outDir := filepath.Join(home, "reports")

	stdout, err := runCmd(t, "analyze-batch", filepath.Join(home, "in", "*"), filepath.Join(home, "in2", "*"), "--out-dir", outDir, "-f", "json", "-j", "4")
	require.NoError(t, err, stdout)
	assert.Equal(t, 4, strings.Count(stdout, "✓"))

	a, err := os.ReadFile(filepath.Join(outDir, "a.csv.findings.json"))
	require.NoError(t, err)
	assert.Equal(t, "a.csv", gjson.GetBytes(a, "name").String())
	assert.Equal(t, "region", gjson.GetBytes(a, "columns.0").String())

	aj, err := os.ReadFile(filepath.Join(outDir, "a.json.findings.json"))
	require.NoError(t, err)
	assert.Equal(t, "a.json", gjson.GetBytes(aj, "name").String())

	a2, err := os.ReadFile(filepath.Join(outDir, "a.csv__2.findings.json"))
	require.NoError(t, err)
	assert.Equal(t, "k", gjson.GetBytes(a2, "columns.0").String())

	b, err := os.ReadFile(filepath.Join(outDir, "b.json.findings.json"))
	require.NoError(t, err)
	assert.Equal(t, "positive", gjson.GetBytes(b, "relationships.0.direction").String())

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestAnalyzeBatch_NoMatches(t *testing.T) {
	home := isolate(t)
	_, err := runCmd(t, "analyze-batch", filepath.Join(home, "nothing", "*.csv"))
	assert.ErrorContains(t, err, "no input files matched")
}

func TestFields(t *testing.T) {
	home := isolate(t)
	data := writeFile(t, filepath.Join(home, "tickets.csv"), "ticketId,errorCount,latency (ms)\nT-1,3,120\nT-2,5,80\n")

	stdout, err := runCmd(t, "fields", data)
	require.NoError(t, err)
	assert.Contains(t, stdout, "tickets.csv: 2 rows, 3 fields")
	assert.Contains(t, stdout, "- ticketId: text, identifier")
	assert.Contains(t, stdout, "- errorCount: numeric, error_metric")
	assert.Contains(t, stdout, "- latency [ms]: numeric, performance_metric")

	stdout, err = runCmd(t, "fields", data, "--json")
	require.NoError(t, err)
	assert.Equal(t, "ticketId", gjson.Get(stdout, "columns.0").String())
	assert.Equal(t, "numeric", gjson.Get(stdout, "fieldTypes.errorCount.type").String())
}

func TestConfig_SetThenShow(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "cfg", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	_, err := runCmd(t, "config", "set", "planner_provider", "ollama", "--config", path)
	require.NoError(t, err)
	_, err = runCmd(t, "config", "set", "api_key", "sk-abcdef123456", "--config", path)
	require.NoError(t, err)

	stdout, err := runCmd(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "planner_provider: ollama")
	assert.Contains(t, stdout, "api_key: sk-****456")
	assert.Contains(t, stdout, "retry_max_attempts: 3")

	_, err = runCmd(t, "config", "set", "default_depth", "deep", "--config", path)
	assert.Error(t, err)
}
