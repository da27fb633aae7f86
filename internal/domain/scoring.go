package domain

import (
	"math"
	"time"
)

// BinaryPnL calcula el PnL de una posición binaria mantenida hasta resolución.
//
// Fórmula: shares = size / entryPrice
//   - acierto (side == outcome): cada share paga $1 → pnl = shares - size
//   - fallo: las shares expiran a $0 → pnl = -size
//
// Devuelve 0 si los inputs son inválidos (entryPrice fuera de (0,1] o size <= 0).
func BinaryPnL(side, outcome Side, entryPrice, sizeUSD float64) float64 {
	if entryPrice <= 0 || entryPrice > 1 || sizeUSD <= 0 {
		return 0
	}
	if side != outcome {
		return -sizeUSD
	}
	shares := sizeUSD / entryPrice
	return shares - sizeUSD
}

// WinRate devuelve la fracción de trades con PnL estrictamente positivo.
// Devuelve 0 si no hay trades (nunca NaN).
func WinRate(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.PnLUSD > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}

// BuildEquityCurve construye la curva de PnL acumulado en orden de entrada.
// Antepone siempre un punto inicial en 0 (la hora de la primera entrada, o
// now si no hay trades) para que el drawdown mida caídas desde el arranque.
// Asume trades ya ordenados por EntryTime.
func BuildEquityCurve(trades []Trade, now time.Time) []EquityPoint {
	start := now
	if len(trades) > 0 {
		start = trades[0].EntryTime
	}
	curve := make([]EquityPoint, 0, len(trades)+1)
	curve = append(curve, EquityPoint{TS: start, Equity: 0})
	cum := 0.0
	for _, t := range trades {
		cum += t.PnLUSD
		curve = append(curve, EquityPoint{TS: t.EntryTime, Equity: cum})
	}
	return curve
}

// MaxDrawdown devuelve la máxima caída pico-valle de la curva de equity,
// expresada como número positivo. 0 si la curva nunca cae bajo un máximo previo.
//
// Fórmula: max(peak_hasta_i - equity_i) sobre toda la curva.
func MaxDrawdown(curve []EquityPoint) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if dd := peak - p.Equity; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
