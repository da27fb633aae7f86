package storage

// sqlite.go — cache de datos descargados y artefactos del backtest.
//
// Estrategia:
//   - `price_history` / `news_articles`: datos crudos, upsert idempotente.
//   - `price_fetches` / `news_fetches`: rangos ya descargados. Un Get* es
//     cache hit solo si algún fetch previo cubre el rango completo pedido —
//     así un run repetido no vuelve a tocar las APIs externas.
//   - `news_articles` guarda también las etiquetas LLM: un artículo con
//     topic vacío aún no pasó por el labeler, y solo esos se reetiquetan.
//   - `sentiment_features`: una serie por ventana, se reemplaza entera.
//   - `runs` + `trades`: histórico de backtests con su configuración.
//
// Timestamps como unix seconds (INTEGER): round-trip exacto sin parseos.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Serie horaria de precios por token
CREATE TABLE IF NOT EXISTS price_history (
    token_id TEXT    NOT NULL,
    ts       INTEGER NOT NULL,
    price    REAL    NOT NULL,
    PRIMARY KEY (token_id, ts)
);

-- Rangos de precios ya descargados, para decidir cache hit
CREATE TABLE IF NOT EXISTS price_fetches (
    token_id   TEXT    NOT NULL,
    from_ts    INTEGER NOT NULL,
    to_ts      INTEGER NOT NULL,
    fetched_at INTEGER NOT NULL,
    PRIMARY KEY (token_id, from_ts, to_ts)
);

-- Artículos macro con sus etiquetas LLM (topic vacío = sin etiquetar)
CREATE TABLE IF NOT EXISTS news_articles (
    url          TEXT PRIMARY KEY,
    source       TEXT,
    title        TEXT,
    description  TEXT,
    content      TEXT,
    published_at INTEGER NOT NULL,
    topic        TEXT    NOT NULL DEFAULT '',
    relevant     INTEGER NOT NULL DEFAULT 0,
    sentiment    INTEGER NOT NULL DEFAULT 0
);

-- Rangos de noticias ya descargados
CREATE TABLE IF NOT EXISTS news_fetches (
    from_ts    INTEGER NOT NULL,
    to_ts      INTEGER NOT NULL,
    fetched_at INTEGER NOT NULL,
    PRIMARY KEY (from_ts, to_ts)
);

-- Features de sentimiento agregadas, una serie por ventana
CREATE TABLE IF NOT EXISTS sentiment_features (
    window_hours  INTEGER NOT NULL,
    ts            INTEGER NOT NULL,
    score         REAL    NOT NULL,
    bullish_ratio REAL    NOT NULL,
    bearish_ratio REAL    NOT NULL,
    articles      INTEGER NOT NULL,
    PRIMARY KEY (window_hours, ts)
);

-- Un run de backtest: configuración usada y métricas resultantes
CREATE TABLE IF NOT EXISTS runs (
    id             TEXT PRIMARY KEY,
    started_at     INTEGER NOT NULL,
    finished_at    INTEGER NOT NULL,
    window_hours   INTEGER NOT NULL,
    max_hours      INTEGER NOT NULL,
    buy_threshold  REAL    NOT NULL,
    sell_threshold REAL    NOT NULL,
    trade_size_usd REAL    NOT NULL,
    markets        INTEGER NOT NULL,
    trades         INTEGER NOT NULL,
    total_pnl      REAL    NOT NULL,
    avg_pnl        REAL    NOT NULL,
    win_rate       REAL    NOT NULL,
    max_drawdown   REAL    NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    run_id      TEXT    NOT NULL,
    token_id    TEXT    NOT NULL,
    market_id   TEXT,
    question    TEXT,
    side        TEXT    NOT NULL,
    entry_ts    INTEGER NOT NULL,
    entry_price REAL    NOT NULL,
    size_usd    REAL    NOT NULL,
    resolve_ts  INTEGER NOT NULL,
    outcome     TEXT    NOT NULL,
    pnl_usd     REAL    NOT NULL,
    sentiment   REAL    NOT NULL,
    articles    INTEGER NOT NULL,
    PRIMARY KEY (run_id, token_id)
);

CREATE INDEX IF NOT EXISTS idx_news_published ON news_articles(published_at);
CREATE INDEX IF NOT EXISTS idx_trades_run     ON trades(run_id);
`

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema. ":memory:" sirve para tests.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// SavePriceHistory upserta la serie del token y registra el rango cubierto.
// Un resultado vacío también cuenta como rango cubierto: no se refetchea.
func (s *SQLiteStorage) SavePriceHistory(ctx context.Context, tokenID string, from, to time.Time, series domain.PriceSeries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SavePriceHistory: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_history (token_id, ts, price) VALUES (?, ?, ?)
		ON CONFLICT(token_id, ts) DO UPDATE SET price = excluded.price
	`)
	if err != nil {
		return fmt.Errorf("storage.SavePriceHistory: prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range series {
		if _, err := stmt.ExecContext(ctx, tokenID, p.TS.UTC().Unix(), p.Price); err != nil {
			return fmt.Errorf("storage.SavePriceHistory: upsert %s: %w", tokenID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO price_fetches (token_id, from_ts, to_ts, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(token_id, from_ts, to_ts) DO UPDATE SET fetched_at = excluded.fetched_at
	`, tokenID, from.UTC().Unix(), to.UTC().Unix(), time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("storage.SavePriceHistory: record fetch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SavePriceHistory: commit: %w", err)
	}
	return nil
}

// GetPriceHistory devuelve la serie cacheada del token dentro de [from, to].
// El bool es true solo si un fetch previo cubrió el rango completo.
func (s *SQLiteStorage) GetPriceHistory(ctx context.Context, tokenID string, from, to time.Time) (domain.PriceSeries, bool, error) {
	covered, err := s.rangeCovered(ctx,
		`SELECT COUNT(*) FROM price_fetches WHERE token_id = ? AND from_ts <= ? AND to_ts >= ?`,
		tokenID, from.UTC().Unix(), to.UTC().Unix())
	if err != nil {
		return nil, false, fmt.Errorf("storage.GetPriceHistory: coverage: %w", err)
	}
	if !covered {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, price FROM price_history
		WHERE token_id = ? AND ts BETWEEN ? AND ?
		ORDER BY ts ASC
	`, tokenID, from.UTC().Unix(), to.UTC().Unix())
	if err != nil {
		return nil, false, fmt.Errorf("storage.GetPriceHistory: query: %w", err)
	}
	defer rows.Close()

	series := domain.PriceSeries{}
	for rows.Next() {
		var ts int64
		var price float64
		if err := rows.Scan(&ts, &price); err != nil {
			return nil, false, fmt.Errorf("storage.GetPriceHistory: scan row: %w", err)
		}
		series = append(series, domain.PricePoint{TS: time.Unix(ts, 0).UTC(), Price: price})
	}
	return series, true, rows.Err()
}

// SaveNews upserta los artículos por URL sin tocar etiquetas ya calculadas,
// y registra el rango de fechas cubierto.
func (s *SQLiteStorage) SaveNews(ctx context.Context, from, to time.Time, items []domain.NewsItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveNews: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO news_articles (url, source, title, description, content, published_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			source       = excluded.source,
			title        = excluded.title,
			description  = excluded.description,
			content      = excluded.content,
			published_at = excluded.published_at
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveNews: prepare: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if item.URL == "" {
			continue // sin URL no hay clave de dedupe
		}
		if _, err := stmt.ExecContext(ctx,
			item.URL, item.Source, item.Title, item.Description, item.Content,
			item.PublishedAt.UTC().Unix(),
		); err != nil {
			return fmt.Errorf("storage.SaveNews: upsert %s: %w", item.URL, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO news_fetches (from_ts, to_ts, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(from_ts, to_ts) DO UPDATE SET fetched_at = excluded.fetched_at
	`, from.UTC().Unix(), to.UTC().Unix(), time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("storage.SaveNews: record fetch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveNews: commit: %w", err)
	}
	return nil
}

// GetNews devuelve los artículos cacheados publicados dentro de [from, to],
// ordenados por fecha de publicación. Topic vacío = aún sin etiquetar.
func (s *SQLiteStorage) GetNews(ctx context.Context, from, to time.Time) ([]domain.NewsItem, bool, error) {
	covered, err := s.rangeCovered(ctx,
		`SELECT COUNT(*) FROM news_fetches WHERE from_ts <= ? AND to_ts >= ?`,
		from.UTC().Unix(), to.UTC().Unix())
	if err != nil {
		return nil, false, fmt.Errorf("storage.GetNews: coverage: %w", err)
	}
	if !covered {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT url, source, title, description, content, published_at, topic, relevant, sentiment
		FROM news_articles
		WHERE published_at BETWEEN ? AND ?
		ORDER BY published_at ASC
	`, from.UTC().Unix(), to.UTC().Unix())
	if err != nil {
		return nil, false, fmt.Errorf("storage.GetNews: query: %w", err)
	}
	defer rows.Close()

	items := []domain.NewsItem{}
	for rows.Next() {
		var item domain.NewsItem
		var publishedAt int64
		var relevant int
		if err := rows.Scan(
			&item.URL, &item.Source, &item.Title, &item.Description, &item.Content,
			&publishedAt, &item.Topic, &relevant, &item.Sentiment,
		); err != nil {
			return nil, false, fmt.Errorf("storage.GetNews: scan row: %w", err)
		}
		item.PublishedAt = time.Unix(publishedAt, 0).UTC()
		item.Relevant = relevant == 1
		items = append(items, item)
	}
	return items, true, rows.Err()
}

// SaveLabels actualiza topic/relevancia/sentimiento de artículos ya guardados.
func (s *SQLiteStorage) SaveLabels(ctx context.Context, items []domain.NewsItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveLabels: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE news_articles SET topic = ?, relevant = ?, sentiment = ? WHERE url = ?
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveLabels: prepare: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if item.URL == "" {
			continue
		}
		relevant := 0
		if item.Relevant {
			relevant = 1
		}
		if _, err := stmt.ExecContext(ctx, item.Topic, relevant, item.Sentiment, item.URL); err != nil {
			return fmt.Errorf("storage.SaveLabels: update %s: %w", item.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveLabels: commit: %w", err)
	}
	return nil
}

// SaveFeatures reemplaza la serie completa de la ventana dada. Una serie
// recalculada siempre supersede a la anterior.
func (s *SQLiteStorage) SaveFeatures(ctx context.Context, windowHours int, series domain.FeatureSeries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveFeatures: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sentiment_features WHERE window_hours = ?`, windowHours,
	); err != nil {
		return fmt.Errorf("storage.SaveFeatures: clear window %d: %w", windowHours, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sentiment_features (window_hours, ts, score, bullish_ratio, bearish_ratio, articles)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveFeatures: prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range series {
		if _, err := stmt.ExecContext(ctx,
			windowHours, f.TS.UTC().Unix(), f.Score, f.BullishRatio, f.BearishRatio, f.ArticleCount,
		); err != nil {
			return fmt.Errorf("storage.SaveFeatures: insert %s: %w", f.TS.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveFeatures: commit: %w", err)
	}
	return nil
}

// GetFeatures devuelve la serie persistida para esa ventana. El bool es true
// si existe al menos una fila: una ventana nunca calculada se reconstruye.
func (s *SQLiteStorage) GetFeatures(ctx context.Context, windowHours int) (domain.FeatureSeries, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, score, bullish_ratio, bearish_ratio, articles
		FROM sentiment_features
		WHERE window_hours = ?
		ORDER BY ts ASC
	`, windowHours)
	if err != nil {
		return nil, false, fmt.Errorf("storage.GetFeatures: query: %w", err)
	}
	defer rows.Close()

	series := domain.FeatureSeries{}
	for rows.Next() {
		var f domain.SentimentFeature
		var ts int64
		if err := rows.Scan(&ts, &f.Score, &f.BullishRatio, &f.BearishRatio, &f.ArticleCount); err != nil {
			return nil, false, fmt.Errorf("storage.GetFeatures: scan row: %w", err)
		}
		f.TS = time.Unix(ts, 0).UTC()
		series = append(series, f)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return series, len(series) > 0, nil
}

// SaveRun persiste la configuración y métricas del run junto a sus trades.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.RunRecord, trades []domain.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, started_at, finished_at, window_hours, max_hours,
			 buy_threshold, sell_threshold, trade_size_usd,
			 markets, trades, total_pnl, avg_pnl, win_rate, max_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.StartedAt.UTC().Unix(), run.FinishedAt.UTC().Unix(),
		run.WindowHours, run.MaxHoursToResolve,
		run.BuyThreshold, run.SellThreshold, run.TradeSizeUSD,
		run.Summary.Markets, run.Summary.Trades, run.Summary.TotalPnL,
		run.Summary.AvgPnL, run.Summary.WinRate, run.Summary.MaxDrawdown,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
			(run_id, token_id, market_id, question, side, entry_ts, entry_price,
			 size_usd, resolve_ts, outcome, pnl_usd, sentiment, articles)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare: %w", err)
	}
	defer stmt.Close()

	for _, tr := range trades {
		if _, err := stmt.ExecContext(ctx,
			run.ID, tr.TokenID, tr.MarketID, tr.Question, string(tr.Side),
			tr.EntryTime.UTC().Unix(), tr.EntryPrice, tr.SizeUSD,
			tr.ResolveTime.UTC().Unix(), string(tr.Outcome), tr.PnLUSD,
			tr.SentimentAtEntry, tr.ArticlesAtEntry,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert trade %s: %w", tr.TokenID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// rangeCovered comprueba si algún fetch previo cubre el rango pedido.
func (s *SQLiteStorage) rangeCovered(ctx context.Context, query string, args ...any) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
