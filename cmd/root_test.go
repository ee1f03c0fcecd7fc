package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/export"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
)

// execute runs the root command offline from an empty working directory and
// returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "FEEDBACK_OPENAI_KEY", "FEEDBACK_ANTHROPIC_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("FEEDBACK_LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		for _, c := range rootCmd.Commands() {
			resetFlags(c)
		}
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	})
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feedback.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"enrich", "serve", "stats", "validate", "sample"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "feedback", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)

	require.NotNil(t, serveCmd.Flags().Lookup("offline"))
	require.NotNil(t, serveCmd.Flags().Lookup("input"))
}

func TestEnrichCommand_Flags(t *testing.T) {
	f := enrichCmd.Flags()
	for _, name := range []string{"input", "sample", "offline", "concurrency", "output", "category", "product", "severity", "region"} {
		assert.NotNil(t, f.Lookup(name), "enrich command should have --%s flag", name)
	}
	assert.Equal(t, "csv", f.Lookup("format").DefValue)
	assert.Equal(t, "0", f.Lookup("concurrency").DefValue)
}

func TestStatsCommand_Flags(t *testing.T) {
	flag := statsCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "yaml", flag.DefValue)
}

func TestEnrich_SampleToStdout(t *testing.T) {
	out, err := execute(t, "enrich", "--sample", "--offline")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, strings.Join(export.Columns, ","), lines[0])
}

func TestEnrich_FilteredJSONFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.json")
	_, err := execute(t, "enrich", "--sample", "--offline",
		"--severity", "Critical", "--region", "US",
		"--output", output, "--format", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var records []model.Enriched
	require.NoError(t, json.Unmarshal(data, &records))
	require.NotEmpty(t, records)
	for _, r := range records {
		assert.Equal(t, model.SeverityCritical, r.Severity)
		assert.Equal(t, model.RegionUS, r.Region)
	}
}

func TestEnrich_ProductFilterKeepsCommas(t *testing.T) {
	input := writeInput(t, "Feedback,Product,Severity,Region\n"+
		"Needs SSO,\"Widgets, Inc.\",High,US\n"+
		"Slow export,Widgets,Low,EU\n"+
		"Audit trail,Inc.,Medium,APAC\n")
	output := filepath.Join(t.TempDir(), "out.json")

	_, err := execute(t, "enrich", "--input", input, "--offline",
		"--product", "Widgets, Inc.",
		"--output", output, "--format", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var records []model.Enriched
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Widgets, Inc.", records[0].Product)
}

func TestEnrich_RequiresInput(t *testing.T) {
	_, err := execute(t, "enrich", "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--input or --sample")
}

func TestEnrich_MissingColumns(t *testing.T) {
	input := writeInput(t, "Feedback,Product\nslow,App\n")
	_, err := execute(t, "enrich", "--input", input, "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestValidate_ReportsCorrections(t *testing.T) {
	input := writeInput(t, "Feedback,Product,Severity,Region,Category\n"+
		"Crashes on login,App,urgent,US,Bug\n"+
		"Needs dark mode,App,Low,mars,Feature\n"+
		",App,Low,EU,Feature\n")

	out, err := execute(t, "validate", "--input", input, "--json")
	require.NoError(t, err)

	var report validateReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.InputRows)
	assert.Equal(t, 2, report.Accepted)
	assert.Len(t, report.Warnings, 3)
}

func TestStats_SampleJSON(t *testing.T) {
	out, err := execute(t, "stats", "--sample", "--offline", "--format", "json")
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "offline", string(report.Mode))
	assert.Equal(t, 10, report.Stats.TotalFeedback)
	assert.Equal(t, 4, report.Stats.CriticalIssues)
	assert.InDelta(t, 6.2, report.Stats.AvgOpportunityScore, 1e-9)
}

func TestStats_UnsupportedFormat(t *testing.T) {
	_, err := execute(t, "stats", "--sample", "--format", "toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toml")
}

func TestSample_RoundTripsThroughValidate(t *testing.T) {
	output := filepath.Join(t.TempDir(), "sample.csv")
	_, err := execute(t, "sample", "--output", output)
	require.NoError(t, err)

	out, err := execute(t, "validate", "--input", output)
	require.NoError(t, err)
	assert.Contains(t, out, "rows read: 10")
	assert.Contains(t, out, "accepted:  10")
	assert.NotContains(t, out, "warning:")
}
