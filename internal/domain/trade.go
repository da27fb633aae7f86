package domain

import "time"

// Trade es una posición simulada: entrada al cierre horario que disparó la
// señal, mantenida hasta la resolución y liquidada contra el outcome real.
type Trade struct {
	TokenID     string
	MarketID    string
	Question    string
	Side        Side
	EntryTime   time.Time
	EntryPrice  float64 // coste por share: p para YES, 1-p para NO
	SizeUSD     float64
	ResolveTime time.Time
	Outcome     Side
	PnLUSD      float64

	// Contexto de la señal en el momento de la entrada.
	SentimentAtEntry float64
	ArticlesAtEntry  int
}

// Won devuelve true si el lado de la posición coincide con el outcome.
func (t Trade) Won() bool { return t.Side == t.Outcome }

// Shares devuelve el número de shares compradas con SizeUSD.
func (t Trade) Shares() float64 {
	if t.EntryPrice <= 0 {
		return 0
	}
	return t.SizeUSD / t.EntryPrice
}

// SkippedMarket registra un mercado descartado del run y el motivo.
type SkippedMarket struct {
	TokenID string
	Reason  string
}

// EquityPoint es un punto de la curva de PnL acumulado.
type EquityPoint struct {
	TS     time.Time
	Equity float64
}

// Summary contiene las métricas agregadas de un run completo.
type Summary struct {
	Markets     int // mercados del universo procesados
	Trades      int
	TotalPnL    float64
	AvgPnL      float64
	WinRate     float64 // fracción de trades con PnL > 0; 0 si no hay trades
	MaxDrawdown float64 // máxima caída pico-valle de la equity, en positivo
}

// BacktestResult es el resultado completo de un run de backtest.
type BacktestResult struct {
	Trades  []Trade
	Skipped []SkippedMarket
	Summary Summary
	Equity  []EquityPoint
}
