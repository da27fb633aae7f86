package backtest

import (
	"fmt"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// Banda de precio operable. Fuera de ella el payoff binario queda demasiado
// asimétrico: por debajo de 0.25 se compra lotería, por encima de 0.75 se
// arriesga mucho para ganar poco.
const (
	minEntryPrice = 0.25
	maxEntryPrice = 0.75
)

// Config son los parámetros de estrategia de un run de backtest.
type Config struct {
	WindowHours       int     // ventana de las features de sentimiento
	MaxHoursToResolve int     // solo se entra a mercados que resuelven dentro de este plazo
	BuyThreshold      float64 // score >= umbral → comprar YES
	SellThreshold     float64 // score <= umbral → comprar NO
	TradeSizeUSD      float64 // capital fijo por posición
	Workers           int     // simulaciones en paralelo; <= 0 usa NumCPU × 2
}

// Validate rechaza configuraciones sin sentido. Cualquier error aquí es
// fatal y se detecta antes de simular el primer mercado.
func (c Config) Validate() error {
	if c.WindowHours < 1 {
		return fmt.Errorf("%w: sentiment window %dh, must be >= 1", domain.ErrInvalidConfig, c.WindowHours)
	}
	if c.MaxHoursToResolve < 1 {
		return fmt.Errorf("%w: max hours to resolve %d, must be >= 1", domain.ErrInvalidConfig, c.MaxHoursToResolve)
	}
	if c.BuyThreshold <= c.SellThreshold {
		return fmt.Errorf("%w: buy threshold %.2f must be greater than sell threshold %.2f",
			domain.ErrInvalidConfig, c.BuyThreshold, c.SellThreshold)
	}
	if c.TradeSizeUSD <= 0 {
		return fmt.Errorf("%w: trade size %.2f USD, must be > 0", domain.ErrInvalidConfig, c.TradeSizeUSD)
	}
	return nil
}
