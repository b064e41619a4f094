package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, lines ...string) (dir, auditLog string) {
	t.Helper()

	dir = t.TempDir()
	auditLog = filepath.Join(dir, "transactions.log")

	lines = append(lines, "STORE=memory", "AUDIT_LOG_PATH="+auditLog)

	err := os.WriteFile(filepath.Join(dir, "app.env"), []byte(strings.Join(lines, "\n")+"\n"), 0o600)
	require.NoError(t, err)

	return dir, auditLog
}

func TestConsoleCommand(t *testing.T) {
	dir, auditLog := writeConfig(t)

	input := strings.Join([]string{
		"1", "ACC1", "Alice", "1000",
		"1", "ACC2", "Bob", "500",
		"4", "1", "2", "300",
		"5", "ACC1",
		"6",
	}, "\n") + "\n"

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs([]string{"console", "--config", dir})
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())

	require.Contains(t, out.String(), "Transfer successful from Account 1 to Account 2")
	require.Contains(t, out.String(), " Your balance is : 700")

	content, err := os.ReadFile(auditLog)
	require.NoError(t, err)
	require.Equal(t, "Account: 1 to 2, Type: TRANSFER, Amount: $300\n", string(content))
}

func TestRootDefaultsToConsole(t *testing.T) {
	dir, _ := writeConfig(t)

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", dir})
	cmd.SetIn(strings.NewReader("9\n6\n"))
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	require.Equal(t, "Invalid option, please choose again.\nExiting...\n", out.String())
}

func TestUnknownStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte("STORE=cassandra\n"), 0o600))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"console", "--config", dir})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})

	require.ErrorContains(t, cmd.Execute(), `unknown store "cassandra"`)
}

func TestMigrateMemoryStore(t *testing.T) {
	dir, _ := writeConfig(t)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--config", dir})
	cmd.SetOut(&bytes.Buffer{})

	require.ErrorContains(t, cmd.Execute(), `store "memory" has no schema to migrate`)
}
