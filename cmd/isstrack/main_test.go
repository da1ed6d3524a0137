package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		csvHTML = false
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestPowerCommand(t *testing.T) {
	assert.Equal(t, "1000\n", run(t, "power", "--area", "2", "--efficiency", "0.5", "--irradiance", "1000"))
	assert.Equal(t, "NaN\n", run(t, "power", "--area", "abc", "--efficiency", "1", "--irradiance", "1"))
}

func TestCSVCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n\n<x>,2\n"), 0o644))

	text := run(t, "csv", path)
	assert.Contains(t, text, "<x>")

	html := run(t, "csv", "--html", path)
	assert.Contains(t, html, "<td>&lt;x&gt;</td>")
	assert.Contains(t, html, "<td>a</td>")
}

func TestInvalidConfigRejected(t *testing.T) {
	t.Setenv("ISSTRACK_POLL_OVERLAP", "sometimes")
	rootCmd.SetArgs([]string{"power"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	assert.Error(t, rootCmd.Execute())
}
