package ports

import (
	"context"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// Labeler asigna topic, relevancia y sentimiento a cada artículo.
type Labeler interface {
	// Label devuelve los artículos con los campos de etiquetado rellenos.
	// Un artículo que no se puede etiquetar recibe la etiqueta neutra
	// (other, no relevante, sentimiento 0) en vez de abortar el lote.
	Label(ctx context.Context, items []domain.NewsItem) ([]domain.NewsItem, error)
}
