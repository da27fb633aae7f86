package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polysent/internal/domain"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func item(published string, sentiment int) domain.NewsItem {
	return domain.NewsItem{
		Title:       "some headline",
		PublishedAt: ts(published),
		Relevant:    true,
		Sentiment:   sentiment,
	}
}

func featureAt(t *testing.T, series domain.FeatureSeries, at string) domain.SentimentFeature {
	t.Helper()
	for _, f := range series {
		if f.TS.Equal(ts(at)) {
			return f
		}
	}
	t.Fatalf("no feature at %s", at)
	return domain.SentimentFeature{}
}

func TestNewBuilder_InvalidWindow(t *testing.T) {
	_, err := NewBuilder(0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	_, err = NewBuilder(-3)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestBuild_EmptyInput(t *testing.T) {
	b, err := NewBuilder(6)
	require.NoError(t, err)
	assert.Empty(t, b.Build(nil))
}

func TestBuild_SingleItem(t *testing.T) {
	b, _ := NewBuilder(6)
	series := b.Build([]domain.NewsItem{item("2024-06-01T10:30:00Z", domain.SentimentBullish)})

	// malla desde floor(10:30)=10:00 hasta ceil(10:30)=11:00
	require.Len(t, series, 2)
	assert.Equal(t, ts("2024-06-01T10:00:00Z"), series[0].TS)
	assert.Equal(t, ts("2024-06-01T11:00:00Z"), series[1].TS)

	// a las 10:00 el artículo de las 10:30 todavía no existe
	assert.Equal(t, 0, series[0].ArticleCount)
	assert.Equal(t, 0.0, series[0].Score)
	assert.Equal(t, 1, series[1].ArticleCount)
	assert.Equal(t, 1.0, series[1].Score)
}

func TestBuild_NoLookAhead(t *testing.T) {
	b, _ := NewBuilder(6)
	series := b.Build([]domain.NewsItem{
		item("2024-06-01T09:30:00Z", domain.SentimentBearish),
		// bomba bullish un minuto después de las 12:00: no puede tocar la feature de las 12:00
		item("2024-06-01T12:01:00Z", domain.SentimentBullish),
	})

	at12 := featureAt(t, series, "2024-06-01T12:00:00Z")
	assert.Equal(t, 1, at12.ArticleCount)
	assert.Equal(t, -1.0, at12.Score)

	at13 := featureAt(t, series, "2024-06-01T13:00:00Z")
	assert.Equal(t, 2, at13.ArticleCount)
	assert.Equal(t, 0.0, at13.Score)
}

func TestBuild_WindowEdges(t *testing.T) {
	b, _ := NewBuilder(6)
	series := b.Build([]domain.NewsItem{
		// exactamente en h queda dentro; exactamente en h-window queda fuera
		item("2024-06-01T06:00:00Z", domain.SentimentBullish),
		item("2024-06-01T12:00:00Z", domain.SentimentBullish),
	})

	at12 := featureAt(t, series, "2024-06-01T12:00:00Z")
	assert.Equal(t, 1, at12.ArticleCount, "item at h-window must be excluded")

	at11 := featureAt(t, series, "2024-06-01T11:00:00Z")
	assert.Equal(t, 1, at11.ArticleCount, "item at 06:00 still inside (11-6, 11]")
}

func TestBuild_RatiosWithNeutrals(t *testing.T) {
	b, _ := NewBuilder(6)
	series := b.Build([]domain.NewsItem{
		item("2024-06-01T10:15:00Z", domain.SentimentBullish),
		item("2024-06-01T10:20:00Z", domain.SentimentBullish),
		item("2024-06-01T10:25:00Z", domain.SentimentBearish),
		item("2024-06-01T10:40:00Z", domain.SentimentNeutral),
	})

	f := featureAt(t, series, "2024-06-01T11:00:00Z")
	assert.Equal(t, 4, f.ArticleCount)
	assert.InDelta(t, 0.5, f.BullishRatio, 0.0001)
	assert.InDelta(t, 0.25, f.BearishRatio, 0.0001)
	assert.InDelta(t, 0.25, f.Score, 0.0001)
	assert.LessOrEqual(t, f.BullishRatio+f.BearishRatio, 1.0)
}

func TestBuild_ItemsLeaveTheWindow(t *testing.T) {
	b, _ := NewBuilder(2)
	series := b.Build([]domain.NewsItem{
		item("2024-06-01T10:30:00Z", domain.SentimentBullish),
		item("2024-06-01T15:30:00Z", domain.SentimentBearish),
	})

	// a las 13:00 la ventana es (11:00, 13:00]: el artículo de las 10:30 ya salió
	at13 := featureAt(t, series, "2024-06-01T13:00:00Z")
	assert.Equal(t, 0, at13.ArticleCount)
	assert.Equal(t, 0.0, at13.Score)
}

func TestBuild_DuplicateTimestampsBothCount(t *testing.T) {
	b, _ := NewBuilder(6)
	series := b.Build([]domain.NewsItem{
		item("2024-06-01T10:30:00Z", domain.SentimentBullish),
		item("2024-06-01T10:30:00Z", domain.SentimentBullish),
	})
	f := featureAt(t, series, "2024-06-01T11:00:00Z")
	assert.Equal(t, 2, f.ArticleCount)
	assert.Equal(t, 1.0, f.Score)
}

func TestBuild_ZeroPublishedAtIgnored(t *testing.T) {
	b, _ := NewBuilder(6)
	series := b.Build([]domain.NewsItem{
		item("2024-06-01T10:30:00Z", domain.SentimentBullish),
		{Title: "sin fecha", Sentiment: domain.SentimentBearish},
	})
	f := featureAt(t, series, "2024-06-01T11:00:00Z")
	assert.Equal(t, 1, f.ArticleCount)
}

func TestBuild_Idempotent(t *testing.T) {
	items := []domain.NewsItem{
		item("2024-06-01T10:30:00Z", domain.SentimentBullish),
		item("2024-06-01T08:15:00Z", domain.SentimentBearish),
		item("2024-06-01T12:45:00Z", domain.SentimentNeutral),
		item("2024-06-01T09:05:00Z", domain.SentimentBullish),
	}
	shuffled := []domain.NewsItem{items[2], items[0], items[3], items[1]}

	b, _ := NewBuilder(4)
	first := b.Build(items)
	second := b.Build(shuffled)
	assert.Equal(t, first, second)
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	items := []domain.NewsItem{
		item("2024-06-01T12:00:00Z", domain.SentimentBullish),
		item("2024-06-01T08:00:00Z", domain.SentimentBearish),
	}
	b, _ := NewBuilder(6)
	b.Build(items)
	assert.Equal(t, ts("2024-06-01T12:00:00Z"), items[0].PublishedAt)
}

func TestCeilHour_ExactHourStays(t *testing.T) {
	assert.Equal(t, ts("2024-06-01T10:00:00Z"), ceilHour(ts("2024-06-01T10:00:00Z")))
	assert.Equal(t, ts("2024-06-01T11:00:00Z"), ceilHour(ts("2024-06-01T10:00:01Z")))
}
