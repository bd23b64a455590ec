package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

func TestRememberCmd_Use(t *testing.T) {
	assert.Equal(t, "remember [content]", rememberCmd.Use)
}

func TestRememberCmd_DefaultFlags(t *testing.T) {
	tier := rememberCmd.Flags().Lookup("tier")
	require.NotNil(t, tier)
	assert.Equal(t, "tier2", tier.DefValue)

	priority := rememberCmd.Flags().Lookup("priority")
	require.NotNil(t, priority)
	assert.Equal(t, "p", priority.Shorthand)
	assert.Equal(t, "0.7", priority.DefValue)
}

func TestRememberCmd_SavesMemory(t *testing.T) {
	retriever := &fakeRetriever{}
	cleanup := setupTestServicesWith(retriever, &fakeAuditService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"remember", "--tier", "tier1", "user is allergic to peanuts"})
	defer func() {
		rootCmd.SetArgs(nil)
		rememberTier = "tier2"
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Saved memory mem-test (tier1, priority 0.70)")
}

func TestRememberCmd_SurfacesDuplicateError(t *testing.T) {
	retriever := &fakeRetriever{err: domain.ErrAlreadyExists}
	cleanup := setupTestServicesWith(retriever, &fakeAuditService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"remember", "duplicate fact"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}
