package domain

import (
	"sort"
	"time"
)

// SentimentFeature agrega el sentimiento de prensa de una ventana móvil que
// termina en TS. Solo cuenta artículos publicados en (TS-window, TS]: nunca
// incorpora información posterior a TS.
type SentimentFeature struct {
	TS           time.Time
	Score        float64 // BullishRatio - BearishRatio, en [-1, 1]
	BullishRatio float64 // fracción de artículos con sentimiento +1
	BearishRatio float64 // fracción de artículos con sentimiento -1
	ArticleCount int     // artículos dentro de la ventana
}

// FeatureSeries es una serie de features ordenada ascendente por TS.
type FeatureSeries []SentimentFeature

// AsOf devuelve la última feature con TS <= ts (join as-of hacia atrás),
// y false si ninguna feature cubre ese instante.
func (fs FeatureSeries) AsOf(ts time.Time) (SentimentFeature, bool) {
	i := sort.Search(len(fs), func(i int) bool { return fs[i].TS.After(ts) })
	if i == 0 {
		return SentimentFeature{}, false
	}
	return fs[i-1], true
}
