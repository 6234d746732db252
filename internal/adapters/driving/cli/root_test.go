package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/mcp"
)

func TestSetup_BuildsServicesOnce(t *testing.T) {
	defer func() {
		Close()
		SetBuilder(nil)
		SetServices(&Services{})
	}()

	calls, released := 0, 0
	SetBuilder(func(context.Context) (*Services, func(), error) {
		calls++
		return &Services{Search: &mockSearchService{}}, func() { released++ }, nil
	})

	_, err := execute("search", "anything")
	require.NoError(t, err)
	_, err = execute("search", "again")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	Close()
	Close()
	assert.Equal(t, 1, released)
}

func TestSetup_BuilderError(t *testing.T) {
	defer SetBuilder(nil)
	SetBuilder(func(context.Context) (*Services, func(), error) {
		return nil, nil, errors.New("sqlite locked")
	})

	_, err := execute("search", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting services: sqlite locked")
}

func TestSetup_SkipsBuilderForNoServiceCommands(t *testing.T) {
	defer SetBuilder(nil)
	SetBuilder(func(context.Context) (*Services, func(), error) {
		t.Fatal("builder should not run for version")
		return nil, nil, nil
	})

	out, err := execute("version")

	require.NoError(t, err)
	assert.Contains(t, out, "sercha-kb version")
}

func TestExecute_SetsVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, Execute(context.Background(), "1.2.3"))
	assert.Contains(t, buf.String(), "sercha-kb version 1.2.3")
}

func TestServeCmd_MissingServices(t *testing.T) {
	_, err := execute("serve")

	require.Error(t, err)
	assert.ErrorIs(t, err, httpapi.ErrMissingService)
}

func TestMCPCmd_MissingSearchService(t *testing.T) {
	_, err := execute("mcp")

	require.Error(t, err)
	assert.ErrorIs(t, err, mcp.ErrMissingSearchService)
}

func TestMCPCmd_HTTPStopsWithContext(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"mcp", "--addr", "127.0.0.1:0"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.ExecuteContext(ctx))
	assert.Contains(t, buf.String(), "MCP server listening")
}

func TestWatchCmd_StopsWithContext(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"watch", t.TempDir()})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.ExecuteContext(ctx))
	assert.Contains(t, buf.String(), "Watching")
}

func TestErrNotConfigured(t *testing.T) {
	assert.EqualError(t, errNotConfigured("chat"), "chat service not configured")
}
