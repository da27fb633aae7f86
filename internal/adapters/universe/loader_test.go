package universe_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polysent/internal/adapters/universe"
	"github.com/alejandrodnm/polysent/internal/domain"
)

func writeUniverse(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "markets.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Fixture(t *testing.T) {
	markets, rejected, err := universe.Load(filepath.Join("..", "..", "..", "testdata", "fixtures", "markets_macro.json"))
	require.NoError(t, err)

	require.Len(t, markets, 3)
	require.Len(t, rejected, 2)

	first := markets[0]
	assert.Equal(t, "7131531241503844", first.TokenID)
	assert.Equal(t, "0xfedcba", first.MarketID)
	assert.Equal(t, domain.SideNo, first.Outcome)
	assert.Equal(t, time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC), first.ResolveTime)

	// market_id cae a condition_id, outcome se normaliza a mayúsculas.
	second := markets[1]
	assert.Equal(t, "0xabc123", second.MarketID)
	assert.Equal(t, domain.SideYes, second.Outcome)
	assert.Equal(t, time.Date(2024, 6, 12, 12, 30, 0, 0, time.UTC), second.ResolveTime)

	// Sin market_id ni condition_id queda el propio token.
	third := markets[2]
	assert.Equal(t, "5501923847109283", third.MarketID)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), third.CreatedAt)

	assert.Equal(t, "1111111111111111", rejected[0].TokenID)
	assert.Contains(t, rejected[0].Reason, "invalid input")
	assert.Equal(t, "2222222222222222", rejected[1].TokenID)
	assert.Contains(t, rejected[1].Reason, "soon")
}

func TestLoad_MissingToken(t *testing.T) {
	path := writeUniverse(t, `[
		{"question": "no token", "resolve_time": "2024-06-12T18:00:00Z", "outcome": "YES"},
		{"token_id": "tok-ok", "resolve_time": "2024-06-12T18:00:00Z", "outcome": "YES"}
	]`)

	markets, rejected, err := universe.Load(path)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "tok-ok", markets[0].TokenID)
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].Reason, "token")
}

func TestLoad_ResolveBeforeCreated(t *testing.T) {
	path := writeUniverse(t, `[
		{"token_id": "tok-bad", "created_at": "2024-07-01T00:00:00Z", "resolve_time": "2024-06-01T00:00:00Z", "outcome": "NO"}
	]`)

	markets, rejected, err := universe.Load(path)
	require.NoError(t, err)
	assert.Empty(t, markets)
	require.Len(t, rejected, 1)
	assert.Equal(t, "tok-bad", rejected[0].TokenID)
}

func TestLoad_EmptyArray(t *testing.T) {
	path := writeUniverse(t, `[]`)

	markets, rejected, err := universe.Load(path)
	require.NoError(t, err)
	assert.Empty(t, markets)
	assert.Empty(t, rejected)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := universe.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeUniverse(t, `{"not": "an array"}`)

	_, _, err := universe.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
