package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps(nil)
	require.NoError(t, err)
	require.Equal(t, 1, steps)

	steps, err = parseSteps([]string{" 3 "})
	require.NoError(t, err)
	require.Equal(t, 3, steps)

	for _, bad := range []string{"0", "-2", "x"} {
		_, err := parseSteps([]string{bad})
		require.Error(t, err, bad)
	}
}

func TestParseVersionAndTarget(t *testing.T) {
	v, err := parseVersion("1")
	require.NoError(t, err)
	require.Equal(t, 1, v)

	_, err = parseVersion("-1")
	require.Error(t, err)

	target, err := parseTarget("2")
	require.NoError(t, err)
	require.Equal(t, uint(2), target)

	_, err = parseTarget("two")
	require.Error(t, err)
}

func TestRootCmd_RequiresDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	require.ErrorContains(t, err, "DB_URL is required")
}

func TestRootCmd_RejectsExtraArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"force"})

	require.Error(t, cmd.Execute())
}
