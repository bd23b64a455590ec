package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

func TestForgetCmd_Use(t *testing.T) {
	assert.Equal(t, "forget [memory-id]", forgetCmd.Use)
}

func TestForgetCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"forget"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestForgetCmd_ForgetsMemory(t *testing.T) {
	retriever := &fakeRetriever{}
	cleanup := setupTestServicesWith(retriever, &fakeAuditService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"forget", "mem-42"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Forgot memory mem-42")
	assert.Equal(t, []string{"mem-42"}, retriever.forgotten)
}

func TestForgetCmd_SurfacesError(t *testing.T) {
	retriever := &fakeRetriever{err: domain.ErrNotFound}
	cleanup := setupTestServicesWith(retriever, &fakeAuditService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"forget", "missing"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
