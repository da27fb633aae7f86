package ports

import (
	"context"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// Notifier presenta el resultado del backtest al usuario.
type Notifier interface {
	// Report muestra los trades, el resumen de métricas y los mercados
	// descartados. En la implementación de consola, imprime tablas formateadas.
	Report(ctx context.Context, result domain.BacktestResult) error
}
