package backtest

// simulator.go — máquina de estados de un mercado: Scanning → Entered →
// Resolved, o Scanning → NoEntry si ninguna barra dispara la señal.
//
// Reglas de entrada sobre cada cierre horario t, en orden:
//  1. el mercado resuelve dentro de MaxHoursToResolve desde t
//  2. el precio YES está dentro de la banda [0.25, 0.75]
//  3. la feature as-of(t) cruza un umbral: score >= buy → YES,
//     score <= sell → NO (pagando 1-p por el share NO)
//
// La primera barra que cumple las tres gana; como máximo una posición por
// mercado, mantenida hasta resolución. El outcome real solo se consulta al
// liquidar — la decisión de entrada nunca lo ve.

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// Simulator decide la entrada y liquida una posición por mercado.
type Simulator struct {
	cfg      Config
	features domain.FeatureSeries
}

// NewSimulator crea un Simulator. La config debe venir ya validada.
func NewSimulator(cfg Config, features domain.FeatureSeries) *Simulator {
	return &Simulator{cfg: cfg, features: features}
}

// Run simula un mercado sobre su serie de precios. Devuelve el trade y true
// si alguna barra disparó la entrada; false si el mercado termina sin
// posición. Error solo si no hay precios utilizables en la vida del mercado.
func (s *Simulator) Run(market domain.MarketConfig, prices domain.PriceSeries) (domain.Trade, bool, error) {
	bars := prices.Clip(market.CreatedAt, market.ResolveTime)
	if len(bars) == 0 {
		return domain.Trade{}, false, fmt.Errorf("%w: token %s has no bars between creation and resolution",
			domain.ErrNoPriceData, market.TokenID)
	}

	maxToResolve := time.Duration(s.cfg.MaxHoursToResolve) * time.Hour
	candidates, covered := 0, 0
	for _, bar := range bars {
		if market.ResolveTime.Sub(bar.TS) > maxToResolve {
			continue
		}
		if bar.Price < minEntryPrice || bar.Price > maxEntryPrice {
			continue
		}
		candidates++

		feat, ok := s.features.AsOf(bar.TS)
		if !ok {
			continue
		}
		covered++

		var side domain.Side
		entry := 0.0
		switch {
		case feat.Score >= s.cfg.BuyThreshold:
			side, entry = domain.SideYes, bar.Price
		case feat.Score <= s.cfg.SellThreshold:
			side, entry = domain.SideNo, 1-bar.Price
		default:
			continue
		}
		if entry <= 0 {
			continue
		}

		trade := domain.Trade{
			TokenID:          market.TokenID,
			MarketID:         market.MarketID,
			Question:         market.Question,
			Side:             side,
			EntryTime:        bar.TS,
			EntryPrice:       entry,
			SizeUSD:          s.cfg.TradeSizeUSD,
			ResolveTime:      market.ResolveTime,
			Outcome:          market.Outcome,
			SentimentAtEntry: feat.Score,
			ArticlesAtEntry:  feat.ArticleCount,
		}
		trade.PnLUSD = domain.BinaryPnL(side, market.Outcome, entry, s.cfg.TradeSizeUSD)
		return trade, true, nil
	}

	if candidates > 0 && covered == 0 {
		slog.Debug("no sentiment coverage for market", "token_id", market.TokenID, "candidate_bars", candidates)
	}
	return domain.Trade{}, false, nil
}
