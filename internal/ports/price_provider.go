package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// PriceProvider obtiene la historia de precios horaria de un token del CLOB.
type PriceProvider interface {
	// FetchPriceHistory devuelve los cierres horarios del token en [from, to],
	// ordenados ascendente, sin duplicados y con precios dentro de [0,1].
	FetchPriceHistory(ctx context.Context, tokenID string, from, to time.Time) (domain.PriceSeries, error)
}
