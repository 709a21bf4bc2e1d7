package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clockInterface = "github.com/panagiotisptr/proxychain/example/clock.Clock"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd()

	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"generate", "batch"})

	level, err := cmd.PersistentFlags().GetString("log-level")
	require.NoError(t, err)
	assert.Equal(t, defaultLogLevel, level)
}

func TestGenerateCmd(t *testing.T) {
	t.Run("Requires every flag", func(t *testing.T) {
		_, err := execute(t, "generate", "--interface", clockInterface)
		assert.ErrorContains(t, err, "required flag(s)")
	})

	t.Run("Rejects an unknown log level", func(t *testing.T) {
		_, err := execute(t, "generate",
			"--log-level", "loud",
			"--interface", clockInterface,
			"--package", "clock",
			"--name", "ClockProxy",
			"--output", filepath.Join(t.TempDir(), "clock_proxy.go"),
		)
		assert.ErrorContains(t, err, `invalid log level "loud"`)
	})

	t.Run("Rejects a malformed interface path", func(t *testing.T) {
		_, err := execute(t, "generate",
			"--interface", "Clock",
			"--package", "clock",
			"--name", "ClockProxy",
			"--output", filepath.Join(t.TempDir(), "clock_proxy.go"),
		)
		assert.ErrorContains(t, err, "must be {package}.{interface}")
	})

	t.Run("Writes the proxy", func(t *testing.T) {
		output := filepath.Join(t.TempDir(), "clock_proxy.go")
		logs, err := execute(t, "generate",
			"--interface", clockInterface,
			"--package", "clock",
			"--name", "ClockProxy",
			"--output", output,
		)
		require.NoError(t, err)
		assert.Contains(t, logs, "proxy generated")

		content, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(content), "type ClockProxy struct")
	})
}

func TestBatchCmd(t *testing.T) {
	t.Run("Reports a missing config file", func(t *testing.T) {
		_, err := execute(t, "batch", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("Generates every proxy", func(t *testing.T) {
		dir := t.TempDir()
		config := filepath.Join(dir, "proxygen.yaml")
		require.NoError(t, os.WriteFile(config, []byte(`
proxies:
  - interface: `+clockInterface+`
    package: clock
    name: ClockProxy
    output: `+filepath.Join(dir, "clock_proxy.go")+`
  - interface: `+clockInterface+`
    package: clockproxy
    name: Clock
    output: `+filepath.Join(dir, "clockproxy.go")+`
`), 0o600))

		_, err := execute(t, "batch", "-c", config, "--log-level", "warn")
		require.NoError(t, err)

		assert.FileExists(t, filepath.Join(dir, "clock_proxy.go"))
		assert.FileExists(t, filepath.Join(dir, "clockproxy.go"))
	})
}
