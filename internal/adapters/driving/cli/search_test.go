package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute("search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasFlags(t *testing.T) {
	limit := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "n", limit.Shorthand)
	assert.Equal(t, "5", limit.DefValue)

	assert.NotNil(t, searchCmd.Flags().Lookup("document"))
	assert.NotNil(t, searchCmd.Flags().Lookup("json"))
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "leave policy")

	require.NoError(t, err)
	assert.Equal(t, "leave policy", testSearch.query)
	assert.Equal(t, domain.DefaultTopK, testSearch.opts.TopK)
	assert.Contains(t, out, "[1] handbook.pdf #0 (0.91)")
	assert.Contains(t, out, "Employees accrue 25 days of leave.")
}

func TestSearchCmd_LimitAndDocument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search", "leave", "-n", "3", "-d", "doc-1")

	require.NoError(t, err)
	assert.Equal(t, 3, testSearch.opts.TopK)
	assert.Equal(t, "doc-1", testSearch.opts.DocumentID)
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "leave", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"document_id": "doc-1"`)
	assert.Contains(t, out, `"chunk_index": 0`)
}

func TestSearchCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testSearch.err = domain.ErrIndexUnavailable

	_, err := execute("search", "leave")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIndexUnavailable))
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	_, err := execute("search", "leave")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestOutputSearchTable_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	outputSearchTable(cmd, nil)

	assert.Contains(t, buf.String(), "No results found.")
}

func TestOutputSearchJSON_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	require.NoError(t, outputSearchJSON(cmd, []domain.Hit{}))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n b\t\tc", 10))
	assert.Equal(t, "héllo...", snippet("héllo world", 5))
	assert.Empty(t, snippet("   ", 5))
}
