package pipeline

// pipeline.go — orquestación del run: datos → etiquetas → features → simulación.
//
// Cada etapa consulta primero la cache local (SQLite) y solo va a la red si
// el rango pedido nunca se descargó. Un fallo al traer precios descarta ese
// mercado y el run sigue; un fallo en noticias o etiquetas aborta, porque
// sin señal de sentimiento no hay nada que simular. Con Offline la red está
// vetada: los precios no cacheados se descartan y las noticias faltantes
// son un error.

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polysent/internal/backtest"
	"github.com/alejandrodnm/polysent/internal/domain"
	"github.com/alejandrodnm/polysent/internal/features"
	"github.com/alejandrodnm/polysent/internal/ports"
)

// Config contiene la configuración del pipeline.
type Config struct {
	Strategy backtest.Config
	Offline  bool // solo cache local, sin tocar APIs externas
}

// Pipeline encadena descarga, etiquetado, features y simulación.
type Pipeline struct {
	cfg     Config
	store   ports.Storage
	prices  ports.PriceProvider
	news    ports.NewsProvider
	labeler ports.Labeler
}

// New crea un Pipeline con todas las dependencias inyectadas.
func New(
	cfg Config,
	store ports.Storage,
	prices ports.PriceProvider,
	news ports.NewsProvider,
	labeler ports.Labeler,
) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		store:   store,
		prices:  prices,
		news:    news,
		labeler: labeler,
	}
}

// Run ejecuta el pipeline completo sobre el universo de mercados para el
// rango [from, to] y devuelve el resultado del backtest.
func (p *Pipeline) Run(ctx context.Context, markets []domain.MarketConfig, from, to time.Time) (domain.BacktestResult, error) {
	start := time.Now()

	if err := p.cfg.Strategy.Validate(); err != nil {
		return domain.BacktestResult{}, fmt.Errorf("pipeline.Run: %w", err)
	}

	priceSeries, skipped := p.ensurePrices(ctx, markets, from, to)
	runnable := withoutSkipped(markets, skipped)

	items, fetchedNews, err := p.ensureNews(ctx, from, to)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("pipeline.Run: %w", err)
	}

	items, newlyLabeled, err := p.ensureLabels(ctx, items)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("pipeline.Run: %w", err)
	}

	featureSeries, err := p.ensureFeatures(ctx, items, fetchedNews || newlyLabeled > 0)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("pipeline.Run: %w", err)
	}

	runner, err := backtest.NewRunner(p.cfg.Strategy, featureSeries)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("pipeline.Run: %w", err)
	}
	result := runner.Run(ctx, runnable, priceSeries)

	// Los descartes del propio pipeline cuentan como mercados intentados.
	result.Skipped = append(skipped, result.Skipped...)
	sort.Slice(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].TokenID < result.Skipped[j].TokenID
	})
	result.Summary.Markets = len(markets)

	slog.Info("pipeline complete",
		"markets", len(markets),
		"articles", len(items),
		"newly_labeled", newlyLabeled,
		"feature_hours", len(featureSeries),
		"trades", result.Summary.Trades,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

// ensurePrices resuelve la serie de precios de cada mercado, de cache o de
// la API. Los fallos se acumulan como descartes, nunca abortan el run.
func (p *Pipeline) ensurePrices(ctx context.Context, markets []domain.MarketConfig, from, to time.Time) (map[string]domain.PriceSeries, []domain.SkippedMarket) {
	series := make(map[string]domain.PriceSeries, len(markets))
	var skipped []domain.SkippedMarket
	fetched := 0

	for _, m := range markets {
		if m.TokenID == "" || series[m.TokenID] != nil {
			continue
		}

		tokenFrom, tokenTo := clampRange(m, from, to)
		if !tokenTo.After(tokenFrom) {
			// La vida del mercado cae fuera del lookback: serie vacía,
			// el simulador lo descartará por falta de datos.
			series[m.TokenID] = domain.PriceSeries{}
			continue
		}

		cached, ok, err := p.store.GetPriceHistory(ctx, m.TokenID, tokenFrom, tokenTo)
		if err != nil {
			skipped = append(skipped, domain.SkippedMarket{TokenID: m.TokenID, Reason: fmt.Sprintf("price cache: %v", err)})
			continue
		}
		if ok {
			series[m.TokenID] = cached
			continue
		}

		if p.cfg.Offline {
			skipped = append(skipped, domain.SkippedMarket{TokenID: m.TokenID, Reason: "offline: price range not cached"})
			continue
		}

		fresh, err := p.prices.FetchPriceHistory(ctx, m.TokenID, tokenFrom, tokenTo)
		if err != nil {
			skipped = append(skipped, domain.SkippedMarket{TokenID: m.TokenID, Reason: fmt.Sprintf("fetch prices: %v", err)})
			continue
		}
		fetched++
		if err := p.store.SavePriceHistory(ctx, m.TokenID, tokenFrom, tokenTo, fresh); err != nil {
			slog.Warn("failed to cache price history", "token", m.TokenID, "err", err)
		}
		series[m.TokenID] = fresh
	}

	slog.Info("price series ready",
		"tokens", len(series),
		"fetched", fetched,
		"cached", len(series)-fetched,
		"skipped", len(skipped),
	)
	return series, skipped
}

// ensureNews devuelve los artículos del rango, de cache o de la API.
// El bool indica si hubo descarga fresca.
func (p *Pipeline) ensureNews(ctx context.Context, from, to time.Time) ([]domain.NewsItem, bool, error) {
	items, ok, err := p.store.GetNews(ctx, from, to)
	if err != nil {
		return nil, false, fmt.Errorf("news cache: %w", err)
	}
	if ok {
		slog.Info("news loaded from cache", "articles", len(items))
		return items, false, nil
	}

	if p.cfg.Offline {
		return nil, false, fmt.Errorf("offline: news range %s to %s not cached",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	items, err = p.news.FetchNews(ctx, from, to)
	if err != nil {
		return nil, false, fmt.Errorf("fetch news: %w", err)
	}
	if err := p.store.SaveNews(ctx, from, to, items); err != nil {
		slog.Warn("failed to cache news", "err", err)
	}
	return items, true, nil
}

// ensureLabels etiqueta los artículos que aún no pasaron por el LLM y
// devuelve cuántos se etiquetaron en este run.
func (p *Pipeline) ensureLabels(ctx context.Context, items []domain.NewsItem) ([]domain.NewsItem, int, error) {
	var pending []int
	for i, item := range items {
		if item.Topic == "" {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return items, 0, nil
	}

	if p.cfg.Offline {
		return nil, 0, fmt.Errorf("offline: %d articles without labels", len(pending))
	}

	unlabeled := make([]domain.NewsItem, len(pending))
	for i, idx := range pending {
		unlabeled[i] = items[idx]
	}

	labeled, err := p.labeler.Label(ctx, unlabeled)
	if err != nil {
		return nil, 0, fmt.Errorf("label news: %w", err)
	}
	for i, idx := range pending {
		items[idx] = labeled[i]
	}

	if err := p.store.SaveLabels(ctx, labeled); err != nil {
		slog.Warn("failed to persist labels", "err", err)
	}
	return items, len(labeled), nil
}

// ensureFeatures devuelve la serie de features de la ventana configurada.
// Con datos nuevos se reconstruye siempre; si no, vale la persistida.
func (p *Pipeline) ensureFeatures(ctx context.Context, items []domain.NewsItem, dirty bool) (domain.FeatureSeries, error) {
	window := p.cfg.Strategy.WindowHours
	if !dirty {
		series, ok, err := p.store.GetFeatures(ctx, window)
		if err != nil {
			return nil, fmt.Errorf("features cache: %w", err)
		}
		if ok {
			slog.Info("features loaded from cache", "window_hours", window, "hours", len(series))
			return series, nil
		}
	}

	builder, err := features.NewBuilder(window)
	if err != nil {
		return nil, fmt.Errorf("build features: %w", err)
	}
	series := builder.Build(domain.FilterRelevant(items))

	if err := p.store.SaveFeatures(ctx, window, series); err != nil {
		slog.Warn("failed to persist features", "err", err)
	}
	return series, nil
}

// clampRange acota el rango global a la vida del mercado.
func clampRange(m domain.MarketConfig, from, to time.Time) (time.Time, time.Time) {
	if !m.CreatedAt.IsZero() && m.CreatedAt.After(from) {
		from = m.CreatedAt
	}
	if !m.ResolveTime.IsZero() && m.ResolveTime.Before(to) {
		to = m.ResolveTime
	}
	return from, to
}

// withoutSkipped devuelve los mercados que no fueron descartados.
func withoutSkipped(markets []domain.MarketConfig, skipped []domain.SkippedMarket) []domain.MarketConfig {
	if len(skipped) == 0 {
		return markets
	}
	drop := make(map[string]bool, len(skipped))
	for _, s := range skipped {
		drop[s.TokenID] = true
	}
	out := make([]domain.MarketConfig, 0, len(markets))
	for _, m := range markets {
		if !drop[m.TokenID] {
			out = append(out, m)
		}
	}
	return out
}
