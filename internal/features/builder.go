package features

// builder.go — features de sentimiento por hora sobre noticias etiquetadas.
//
// Para cada hora h de la malla se agregan los artículos publicados en la
// ventana (h-window, h]: estrictamente después de h-window y nunca después
// de h. Esa asimetría es la garantía anti look-ahead — la feature de las
// 15:00 jamás ve un artículo de las 15:01.
//
// La malla cubre desde floor(primera publicación) hasta ceil(última), con
// las horas sin artículos emitidas en cero para que el join as-of del
// simulador siempre encuentre una feature dentro del rango cubierto.

import (
	"fmt"
	"sort"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// Builder construye series de features de sentimiento con ventana móvil.
type Builder struct {
	window time.Duration
}

// NewBuilder crea un Builder con ventana de windowHours horas.
// Falla con ErrInvalidConfig si la ventana es menor que una hora.
func NewBuilder(windowHours int) (*Builder, error) {
	if windowHours < 1 {
		return nil, fmt.Errorf("%w: sentiment window %dh, must be >= 1", domain.ErrInvalidConfig, windowHours)
	}
	return &Builder{window: time.Duration(windowHours) * time.Hour}, nil
}

// Build agrega los artículos en una serie horaria de features. Cuenta todos
// los artículos recibidos (el filtrado por relevancia ocurre antes, en el
// pipeline); los de PublishedAt cero se ignoran. Con input vacío devuelve
// una serie vacía. El resultado es determinista: mismas noticias, misma serie.
func (b *Builder) Build(items []domain.NewsItem) domain.FeatureSeries {
	sorted := make([]domain.NewsItem, 0, len(items))
	for _, it := range items {
		if !it.PublishedAt.IsZero() {
			sorted = append(sorted, it)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.Before(sorted[j].PublishedAt)
	})

	start := floorHour(sorted[0].PublishedAt)
	end := ceilHour(sorted[len(sorted)-1].PublishedAt)

	series := make(domain.FeatureSeries, 0, int(end.Sub(start)/time.Hour)+1)
	lo, hi := 0, 0
	bulls, bears := 0, 0
	for h := start; !h.After(end); h = h.Add(time.Hour) {
		// entran los artículos con PublishedAt <= h
		for hi < len(sorted) && !sorted[hi].PublishedAt.After(h) {
			switch sorted[hi].Sentiment {
			case domain.SentimentBullish:
				bulls++
			case domain.SentimentBearish:
				bears++
			}
			hi++
		}
		// salen los artículos con PublishedAt <= h-window
		cutoff := h.Add(-b.window)
		for lo < hi && !sorted[lo].PublishedAt.After(cutoff) {
			switch sorted[lo].Sentiment {
			case domain.SentimentBullish:
				bulls--
			case domain.SentimentBearish:
				bears--
			}
			lo++
		}

		f := domain.SentimentFeature{TS: h, ArticleCount: hi - lo}
		if f.ArticleCount > 0 {
			f.BullishRatio = float64(bulls) / float64(f.ArticleCount)
			f.BearishRatio = float64(bears) / float64(f.ArticleCount)
			f.Score = f.BullishRatio - f.BearishRatio
		}
		series = append(series, f)
	}
	return series
}

// floorHour trunca t a la hora UTC.
func floorHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// ceilHour redondea t hacia arriba a la hora UTC (t exacto queda igual).
func ceilHour(t time.Time) time.Time {
	f := floorHour(t)
	if f.Equal(t.UTC()) {
		return f
	}
	return f.Add(time.Hour)
}
