package ports

import (
	"context"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// Renderer genera una visualización del resultado del backtest.
type Renderer interface {
	// Render produce la curva de equity del run. La implementación HTML
	// escribe un fichero standalone abrible en el navegador.
	Render(ctx context.Context, result domain.BacktestResult) error
}
