package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polysent/internal/adapters/storage"
	"github.com/alejandrodnm/polysent/internal/domain"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return parsed
}

func openStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newsItem(url string, published time.Time) domain.NewsItem {
	return domain.NewsItem{
		Source:      "Reuters",
		Title:       "Fed holds rates steady",
		Description: "The Federal Reserve kept its benchmark rate unchanged.",
		Content:     "Full article body.",
		URL:         url,
		PublishedAt: published,
	}
}

func TestSQLiteStorage_PriceHistoryRoundTrip(t *testing.T) {
	db := openStorage(t)
	ctx := context.Background()

	from := ts(t, "2024-06-01T00:00:00Z")
	to := ts(t, "2024-06-02T00:00:00Z")
	series := domain.PriceSeries{
		{TS: ts(t, "2024-06-01T10:00:00Z"), Price: 0.40},
		{TS: ts(t, "2024-06-01T11:00:00Z"), Price: 0.45},
	}

	// Antes de guardar: miss
	_, ok, err := db.GetPriceHistory(ctx, "tok-1", from, to)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.SavePriceHistory(ctx, "tok-1", from, to, series))

	got, ok, err := db.GetPriceHistory(ctx, "tok-1", from, to)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, series[0].TS, got[0].TS)
	assert.InDelta(t, 0.40, got[0].Price, 1e-9)
	assert.InDelta(t, 0.45, got[1].Price, 1e-9)
}

func TestSQLiteStorage_PriceHistory_SubrangeIsHit(t *testing.T) {
	db := openStorage(t)
	ctx := context.Background()

	from := ts(t, "2024-06-01T00:00:00Z")
	to := ts(t, "2024-06-10T00:00:00Z")
	series := domain.PriceSeries{
		{TS: ts(t, "2024-06-01T10:00:00Z"), Price: 0.40},
		{TS: ts(t, "2024-06-05T10:00:00Z"), Price: 0.60},
	}
	require.NoError(t, db.SavePriceHistory(ctx, "tok-1", from, to, series))

	// Subrango del fetch original: hit, y solo devuelve las filas del rango
	got, ok, err := db.GetPriceHistory(ctx, "tok-1",
		ts(t, "2024-06-04T00:00:00Z"), ts(t, "2024-06-06T00:00:00Z"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.60, got[0].Price, 1e-9)

	// Rango más amplio que el fetch: miss aunque haya filas
	_, ok, err = db.GetPriceHistory(ctx, "tok-1", from, ts(t, "2024-07-01T00:00:00Z"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorage_PriceHistory_EmptySeriesStillCovered(t *testing.T) {
	db := openStorage(t)
	ctx := context.Background()

	from := ts(t, "2024-06-01T00:00:00Z")
	to := ts(t, "2024-06-02T00:00:00Z")
	require.NoError(t, db.SavePriceHistory(ctx, "tok-empty", from, to, nil))

	got, ok, err := db.GetPriceHistory(ctx, "tok-empty", from, to)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestSQLiteStorage_PriceHistory_PerToken(t *testing.T) {
	db := openStorage(t)
	ctx := context.Background()

	from := ts(t, "2024-06-01T00:00:00Z")
	to := ts(t, "2024-06-02T00:00:00Z")
	require.NoError(t, db.SavePriceHistory(ctx, "tok-a", from, to, domain.PriceSeries{
		{TS: ts(t, "2024-06-01T10:00:00Z"), Price: 0.40},
	}))

	// El rango cubierto de tok-a no cubre a tok-b
	_, ok, err := db.GetPriceHistory(ctx, "tok-b", from, to)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorage_NewsAndLabels(t *testing.T) {
	db := openStorage(t)
	ctx := context.Background()

	from := ts(t, "2024-06-01T00:00:00Z")
	to := ts(t, "2024-06-02T00:00:00Z")
	items := []domain.NewsItem{
		newsItem("https://example.com/a", ts(t, "2024-06-01T09:00:00Z")),
		newsItem("https://example.com/b", ts(t, "2024-06-01T14:00:00Z")),
	}
	require.NoError(t, db.SaveNews(ctx, from, to, items))

	got, ok, err := db.GetNews(ctx, from, to)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "https://example.com/a", got[0].URL)
	assert.Empty(t, got[0].Topic) // sin etiquetar todavía

	// Etiquetar y releer
	labeled := got
	labeled[0].Topic = "Fed_rate"
	labeled[0].Relevant = true
	labeled[0].Sentiment = domain.SentimentBullish
	labeled[1].Topic = "other"
	require.NoError(t, db.SaveLabels(ctx, labeled))

	got, ok, err = db.GetNews(ctx, from, to)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Fed_rate", got[0].Topic)
	assert.True(t, got[0].Relevant)
	assert.Equal(t, domain.SentimentBullish, got[0].Sentiment)
	assert.Equal(t, "other", got[1].Topic)
	assert.False(t, got[1].Relevant)
}

func TestSQLiteStorage_SaveNews_DoesNotClobberLabels(t *testing.T) {
	db := openStorage(t)
	ctx := context.Background()

	from := ts(t, "2024-06-01T00:00:00Z")
	to := ts(t, "2024-06-02T00:00:00Z")
	item := newsItem("https://example.com/a", ts(t, "2024-06-01T09:00:00Z"))
	require.NoError(t, db.SaveNews(ctx, from, to, []domain.NewsItem{item}))

	item.Topic = "inflation"
	item.Relevant = true
	item.Sentiment = domain.SentimentBearish
	require.NoError(t, db.SaveLabels(ctx, []domain.NewsItem{item}))

	// Re-guardar el artículo crudo no debe borrar las etiquetas
	require.NoError(t, db.SaveNews(ctx, from, to, []domain.NewsItem{newsItem("https://example.com/a", ts(t, "2024-06-01T09:00:00Z"))}))

	got, ok, err := db.GetNews(ctx, from, to)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "inflation", got[0].Topic)
	assert.Equal(t, domain.SentimentBearish, got[0].Sentiment)
}

func TestSQLiteStorage_FeaturesRoundTrip(t *testing.T) {
	db := openStorage(t)
	ctx := context.Background()

	// Ventana nunca calculada: miss
	_, ok, err := db.GetFeatures(ctx, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	series := domain.FeatureSeries{
		{TS: ts(t, "2024-06-01T10:00:00Z"), Score: 0.5, BullishRatio: 0.75, BearishRatio: 0.25, ArticleCount: 4},
		{TS: ts(t, "2024-06-01T11:00:00Z"), Score: -0.2, BullishRatio: 0.2, BearishRatio: 0.4, ArticleCount: 5},
	}
	require.NoError(t, db.SaveFeatures(ctx, 6, series))

	got, ok, err := db.GetFeatures(ctx, 6)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, series[0], got[0])
	assert.Equal(t, series[1], got[1])

	// Otra ventana sigue vacía
	_, ok, err = db.GetFeatures(ctx, 12)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorage_SaveFeatures_ReplacesWindow(t *testing.T) {
	db := openStorage(t)
	ctx := context.Background()

	require.NoError(t, db.SaveFeatures(ctx, 6, domain.FeatureSeries{
		{TS: ts(t, "2024-06-01T10:00:00Z"), Score: 0.5, ArticleCount: 4},
		{TS: ts(t, "2024-06-01T11:00:00Z"), Score: 0.5, ArticleCount: 4},
	}))
	require.NoError(t, db.SaveFeatures(ctx, 6, domain.FeatureSeries{
		{TS: ts(t, "2024-06-01T12:00:00Z"), Score: -1, ArticleCount: 1},
	}))

	got, ok, err := db.GetFeatures(ctx, 6)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, ts(t, "2024-06-01T12:00:00Z"), got[0].TS)
}

func TestSQLiteStorage_SaveRun(t *testing.T) {
	db := openStorage(t)
	ctx := context.Background()

	run := domain.RunRecord{
		ID:                "550e8400-e29b-41d4-a716-446655440000",
		StartedAt:         ts(t, "2024-06-15T10:00:00Z"),
		FinishedAt:        ts(t, "2024-06-15T10:05:00Z"),
		WindowHours:       6,
		MaxHoursToResolve: 72,
		BuyThreshold:      0.3,
		SellThreshold:     -0.3,
		TradeSizeUSD:      100,
		Summary: domain.Summary{
			Markets: 2, Trades: 1, TotalPnL: 150, AvgPnL: 150, WinRate: 1, MaxDrawdown: 0,
		},
	}
	trades := []domain.Trade{{
		TokenID:     "tok-1",
		MarketID:    "0xabc",
		Question:    "Will the Fed cut?",
		Side:        domain.SideYes,
		EntryTime:   ts(t, "2024-06-01T10:00:00Z"),
		EntryPrice:  0.40,
		SizeUSD:     100,
		ResolveTime: ts(t, "2024-06-03T00:00:00Z"),
		Outcome:     domain.SideYes,
		PnLUSD:      150,
	}}

	require.NoError(t, db.SaveRun(ctx, run, trades))

	// Mismo ID dos veces viola la primary key
	err := db.SaveRun(ctx, run, nil)
	assert.Error(t, err)
}
