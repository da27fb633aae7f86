package backtest

import (
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// Summarize calcula las métricas agregadas y la curva de equity de un run.
// Espera los trades ya ordenados por EntryTime. Con cero trades todas las
// métricas quedan en 0 — nunca NaN — y la curva es el único punto inicial.
func Summarize(trades []domain.Trade, markets int, now time.Time) (domain.Summary, []domain.EquityPoint) {
	total := 0.0
	for _, t := range trades {
		total += t.PnLUSD
	}
	avg := 0.0
	if len(trades) > 0 {
		avg = total / float64(len(trades))
	}

	equity := domain.BuildEquityCurve(trades, now)
	summary := domain.Summary{
		Markets:     markets,
		Trades:      len(trades),
		TotalPnL:    total,
		AvgPnL:      avg,
		WinRate:     domain.WinRate(trades),
		MaxDrawdown: domain.MaxDrawdown(equity),
	}
	return summary, equity
}
