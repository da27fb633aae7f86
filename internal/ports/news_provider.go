package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// NewsProvider descarga artículos de prensa macro en un rango de fechas.
type NewsProvider interface {
	// FetchNews devuelve los artículos publicados en [from, to].
	// Pagina automáticamente hasta agotar resultados o alcanzar el máximo
	// configurado. Los artículos sin fecha parseable se descartan.
	FetchNews(ctx context.Context, from, to time.Time) ([]domain.NewsItem, error)
}
