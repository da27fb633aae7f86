package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// maxSkippedShown limita el listado de descartes para no inundar la consola.
const maxSkippedShown = 10

// Console implementa ports.Notifier.
type Console struct {
	out     io.Writer
	verbose bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

// Report imprime la tabla de trades, los mercados descartados y el resumen.
func (c *Console) Report(_ context.Context, result domain.BacktestResult) error {
	if len(result.Trades) == 0 {
		fmt.Fprintln(c.out, "\nNo trades entered — no market crossed the sentiment thresholds.")
	} else {
		c.printTrades(result.Trades)
	}

	if len(result.Skipped) > 0 {
		c.printSkipped(result.Skipped)
	}

	c.printSummary(result.Summary)
	return nil
}

// printTrades imprime una fila por trade ejecutado.
func (c *Console) printTrades(trades []domain.Trade) {
	fmt.Fprintf(c.out, "\n%d trades:\n", len(trades))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Side", "Entry", "Price", "Sent", "Arts", "Outcome", "PnL")

	for i, tr := range trades {
		pnl := fmt.Sprintf("$%.2f", tr.PnLUSD)
		if tr.Won() {
			pnl += " W"
		} else {
			pnl += " L"
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			domain.TruncateQuestion(tr.Question, tr.TokenID, 38),
			string(tr.Side),
			tr.EntryTime.UTC().Format("01-02 15:04"),
			fmt.Sprintf("%.3f", tr.EntryPrice),
			fmt.Sprintf("%+.2f", tr.SentimentAtEntry),
			fmt.Sprintf("%d", tr.ArticlesAtEntry),
			string(tr.Outcome),
			pnl,
		)
	}

	table.Render()
}

// printSkipped lista los mercados descartados con su motivo.
func (c *Console) printSkipped(skipped []domain.SkippedMarket) {
	fmt.Fprintf(c.out, "\n%d markets skipped:\n", len(skipped))

	shown := skipped
	if !c.verbose && len(shown) > maxSkippedShown {
		shown = shown[:maxSkippedShown]
	}
	for _, s := range shown {
		token := s.TokenID
		if token == "" {
			token = "(no token)"
		}
		fmt.Fprintf(c.out, "  - %s: %s\n", token, s.Reason)
	}
	if rest := len(skipped) - len(shown); rest > 0 {
		fmt.Fprintf(c.out, "  ... and %d more (use -verbose to list all)\n", rest)
	}
}

// printSummary imprime el bloque final de métricas del run.
func (c *Console) printSummary(s domain.Summary) {
	fmt.Fprintf(c.out, "\nBacktest Summary\n")
	fmt.Fprintf(c.out, "-----------------\n")
	fmt.Fprintf(c.out, "Markets: %d\n", s.Markets)
	fmt.Fprintf(c.out, "Trades: %d\n", s.Trades)
	fmt.Fprintf(c.out, "Total PnL: %.2f\n", s.TotalPnL)
	fmt.Fprintf(c.out, "Average PnL per trade: %.2f\n", s.AvgPnL)
	fmt.Fprintf(c.out, "Win rate: %.1f%%\n", s.WinRate*100)
	fmt.Fprintf(c.out, "Max drawdown: %.2f\n", s.MaxDrawdown)
}
