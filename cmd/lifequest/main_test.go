package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTokenHash(t *testing.T) {
	out, err := execute(t, "token", "hash", "s3cret", "--cost", "4")
	require.NoError(t, err)

	line := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(out), "hash:"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(line), []byte("s3cret")))
}

func TestTokenHash_Generated(t *testing.T) {
	out, err := execute(t, "token", "hash", "--cost", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "token: ")
	assert.Contains(t, out, "hash:  $2a$04$")
}

func TestRewardsValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rewards:
  - key: first_log
    name: First Log
    condition: tasks_completed
    threshold: "1"
  - key: mystery
    name: Mystery
    condition: moon_phase
    threshold: "1"
`), 0o600))

	out, err := execute(t, "rewards", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `warning: mystery: unknown condition "moon_phase"`)
	assert.Contains(t, out, "1 reward(s) ok, 1 with unknown conditions")
}

func TestRewardsValidate_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewards.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rewards: []\n"), 0o600))

	_, err := execute(t, "rewards", "validate", path)
	assert.Error(t, err)
}

func TestShippedCatalogIsValid(t *testing.T) {
	out, err := execute(t, "rewards", "validate", filepath.Join("..", "..", "config", "rewards.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "0 with unknown conditions")
}
