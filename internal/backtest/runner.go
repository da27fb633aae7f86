package backtest

// runner.go — worker pool para simular el universo de mercados en paralelo.
//
// Cada mercado es independiente (features compartidas en solo-lectura, sin
// estado mutable común), así que el pool reparte mercados entre workers y
// reordena el resultado al final: los trades por (EntryTime, TokenID) y los
// descartes por token. Mismo universo, mismo resultado, da igual el orden
// de entrada o el número de workers.

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// Runner ejecuta el backtest completo sobre un universo de mercados.
type Runner struct {
	cfg Config
	sim *Simulator
}

// NewRunner valida la config y crea el Runner. Las features se comparten
// entre todos los mercados del run.
func NewRunner(cfg Config, features domain.FeatureSeries) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, sim: NewSimulator(cfg, features)}, nil
}

// outcome es el resultado de simular un mercado en un worker.
type outcome struct {
	trade   domain.Trade
	entered bool
	skipped *domain.SkippedMarket
}

// Run simula todos los mercados y agrega métricas. Un mercado malformado o
// sin precios se descarta con motivo y el run continúa; solo la config
// inválida (ya rechazada en NewRunner) aborta un backtest.
func (r *Runner) Run(ctx context.Context, markets []domain.MarketConfig, prices map[string]domain.PriceSeries) domain.BacktestResult {
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	workCh := make(chan domain.MarketConfig, len(markets))
	resultCh := make(chan outcome, len(markets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range workCh {
				if ctx.Err() != nil {
					continue
				}
				resultCh <- r.simulate(m, prices)
			}
		}()
	}

	for _, m := range markets {
		workCh <- m
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	trades := make([]domain.Trade, 0, len(markets))
	skipped := make([]domain.SkippedMarket, 0)
	for res := range resultCh {
		switch {
		case res.skipped != nil:
			skipped = append(skipped, *res.skipped)
		case res.entered:
			trades = append(trades, res.trade)
		}
	}

	// Orden total para que el resultado no dependa del scheduling.
	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].EntryTime.Equal(trades[j].EntryTime) {
			return trades[i].EntryTime.Before(trades[j].EntryTime)
		}
		return trades[i].TokenID < trades[j].TokenID
	})
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].TokenID < skipped[j].TokenID })

	summary, equity := Summarize(trades, len(markets), time.Now().UTC())
	slog.Info("backtest complete",
		"markets", summary.Markets,
		"trades", summary.Trades,
		"skipped", len(skipped),
		"total_pnl", summary.TotalPnL,
		"workers", workers,
	)

	return domain.BacktestResult{Trades: trades, Skipped: skipped, Summary: summary, Equity: equity}
}

// simulate procesa un mercado: valida, localiza su serie de precios y corre
// el simulador. Los fallos se convierten en descartes con motivo.
func (r *Runner) simulate(m domain.MarketConfig, prices map[string]domain.PriceSeries) outcome {
	if err := m.Validate(); err != nil {
		slog.Debug("skipping invalid market", "token_id", m.TokenID, "err", err)
		return outcome{skipped: &domain.SkippedMarket{TokenID: m.TokenID, Reason: err.Error()}}
	}

	series, ok := prices[m.TokenID]
	if !ok {
		slog.Debug("skipping market without price series", "token_id", m.TokenID)
		return outcome{skipped: &domain.SkippedMarket{TokenID: m.TokenID, Reason: domain.ErrUnknownToken.Error()}}
	}

	trade, entered, err := r.sim.Run(m, series)
	if err != nil {
		slog.Debug("skipping market", "token_id", m.TokenID, "err", err)
		return outcome{skipped: &domain.SkippedMarket{TokenID: m.TokenID, Reason: err.Error()}}
	}
	if !entered {
		slog.Debug("no entry for market", "token_id", m.TokenID)
	}
	return outcome{trade: trade, entered: entered}
}
