package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// Storage cachea los datos descargados y persiste los artefactos del run.
// Los Get* de cache devuelven además un bool: true solo si un fetch previo
// ya cubrió el rango pedido (mismo token y rango igual o más amplio).
type Storage interface {
	// SavePriceHistory guarda la serie de un token y registra el rango cubierto.
	SavePriceHistory(ctx context.Context, tokenID string, from, to time.Time, series domain.PriceSeries) error

	// GetPriceHistory devuelve la serie cacheada del token dentro de [from, to].
	GetPriceHistory(ctx context.Context, tokenID string, from, to time.Time) (domain.PriceSeries, bool, error)

	// SaveNews guarda los artículos y registra el rango de fechas cubierto.
	SaveNews(ctx context.Context, from, to time.Time, items []domain.NewsItem) error

	// GetNews devuelve los artículos cacheados publicados dentro de [from, to].
	GetNews(ctx context.Context, from, to time.Time) ([]domain.NewsItem, bool, error)

	// SaveLabels actualiza topic/relevancia/sentimiento de artículos ya guardados.
	SaveLabels(ctx context.Context, items []domain.NewsItem) error

	// SaveFeatures persiste la serie de features de una ventana dada.
	SaveFeatures(ctx context.Context, windowHours int, series domain.FeatureSeries) error

	// GetFeatures devuelve la serie de features persistida para esa ventana.
	GetFeatures(ctx context.Context, windowHours int) (domain.FeatureSeries, bool, error)

	// SaveRun persiste el run con sus métricas y todos sus trades.
	SaveRun(ctx context.Context, run domain.RunRecord, trades []domain.Trade) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
