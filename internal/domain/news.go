package domain

import "time"

// Etiquetas de sentimiento que asigna el labeler a cada artículo.
const (
	SentimentBearish = -1
	SentimentNeutral = 0
	SentimentBullish = 1
)

// NewsItem es un artículo de prensa macro, opcionalmente ya etiquetado.
// Los campos de etiquetado quedan en cero hasta que el labeler lo procesa.
type NewsItem struct {
	Source      string
	Title       string
	Description string
	Content     string
	URL         string
	PublishedAt time.Time

	Topic     string // Fed_rate, inflation, jobs, other
	Relevant  bool   // true si el artículo trata macro US
	Sentiment int    // -1 bearish, 0 neutral, +1 bullish
}

// FilterRelevant devuelve solo los artículos marcados relevantes por el
// labeler. Las features de sentimiento se construyen sobre este subconjunto.
func FilterRelevant(items []NewsItem) []NewsItem {
	out := make([]NewsItem, 0, len(items))
	for _, it := range items {
		if it.Relevant {
			out = append(out, it)
		}
	}
	return out
}
