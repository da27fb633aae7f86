package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// tradeHeader define el orden de columnas del CSV de trades.
var tradeHeader = []string{
	"token_id", "market_id", "question", "side",
	"entry_time", "entry_price", "size_usd",
	"resolve_time", "outcome", "pnl_usd",
	"sentiment_at_entry", "articles_at_entry",
}

// WriteTrades escribe los trades como CSV en w, con cabecera incluida.
func WriteTrades(w io.Writer, trades []domain.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return fmt.Errorf("export.WriteTrades: header: %w", err)
	}
	for _, tr := range trades {
		record := []string{
			tr.TokenID,
			tr.MarketID,
			tr.Question,
			string(tr.Side),
			tr.EntryTime.UTC().Format(time.RFC3339),
			formatFloat(tr.EntryPrice),
			formatFloat(tr.SizeUSD),
			tr.ResolveTime.UTC().Format(time.RFC3339),
			string(tr.Outcome),
			formatFloat(tr.PnLUSD),
			formatFloat(tr.SentimentAtEntry),
			strconv.Itoa(tr.ArticlesAtEntry),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export.WriteTrades: trade %s: %w", tr.TokenID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export.WriteTrades: flush: %w", err)
	}
	return nil
}

// WriteTradesFile escribe el CSV de trades en la ruta dada.
func WriteTradesFile(path string, trades []domain.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export.WriteTradesFile: create %q: %w", path, err)
	}
	defer f.Close()

	if err := WriteTrades(f, trades); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
