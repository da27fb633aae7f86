package domain

import "time"

// RunRecord identifica un run de backtest persistido, con la configuración
// exacta que lo produjo y sus métricas. Permite comparar ejecuciones sin
// adivinar qué parámetros se usaron.
type RunRecord struct {
	ID                string // uuid
	StartedAt         time.Time
	FinishedAt        time.Time
	WindowHours       int
	MaxHoursToResolve int
	BuyThreshold      float64
	SellThreshold     float64
	TradeSizeUSD      float64
	Summary           Summary
}
