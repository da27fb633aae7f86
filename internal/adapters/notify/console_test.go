package notify_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polysent/internal/adapters/notify"
	"github.com/alejandrodnm/polysent/internal/domain"
)

func makeTrade(question string, pnl float64) domain.Trade {
	outcome := domain.SideYes
	if pnl < 0 {
		outcome = domain.SideNo
	}
	return domain.Trade{
		TokenID:          "713153124150",
		MarketID:         "0xtest",
		Question:         question,
		Side:             domain.SideYes,
		EntryTime:        time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		EntryPrice:       0.40,
		SizeUSD:          100,
		ResolveTime:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Outcome:          outcome,
		PnLUSD:           pnl,
		SentimentAtEntry: 0.42,
		ArticlesAtEntry:  7,
	}
}

func TestConsole_Report_WithTrades(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	result := domain.BacktestResult{
		Trades: []domain.Trade{
			makeTrade("Will the Fed cut in June?", 150),
			makeTrade("Will CPI come in above 3.4%?", -100),
		},
		Summary: domain.Summary{
			Markets: 3, Trades: 2, TotalPnL: 50, AvgPnL: 25, WinRate: 0.5, MaxDrawdown: 100,
		},
	}

	require.NoError(t, n.Report(context.Background(), result))

	out := buf.String()
	assert.Contains(t, out, "Will the Fed cut in June?")
	assert.Contains(t, out, "$150.00 W")
	assert.Contains(t, out, "$-100.00 L")
	assert.Contains(t, out, "Backtest Summary")
	assert.Contains(t, out, "Markets: 3")
	assert.Contains(t, out, "Trades: 2")
	assert.Contains(t, out, "Total PnL: 50.00")
	assert.Contains(t, out, "Average PnL per trade: 25.00")
	assert.Contains(t, out, "Win rate: 50.0%")
	assert.Contains(t, out, "Max drawdown: 100.00")
}

func TestConsole_Report_NoTrades(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	result := domain.BacktestResult{
		Summary: domain.Summary{Markets: 5},
	}

	require.NoError(t, n.Report(context.Background(), result))

	out := buf.String()
	assert.Contains(t, out, "No trades entered")
	assert.Contains(t, out, "Markets: 5")
	assert.Contains(t, out, "Win rate: 0.0%")
}

func TestConsole_Report_SkippedCapped(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	var skipped []domain.SkippedMarket
	for i := 0; i < 13; i++ {
		skipped = append(skipped, domain.SkippedMarket{
			TokenID: fmt.Sprintf("tok-%02d", i),
			Reason:  "no price data",
		})
	}

	require.NoError(t, n.Report(context.Background(), domain.BacktestResult{Skipped: skipped}))

	out := buf.String()
	assert.Contains(t, out, "13 markets skipped")
	assert.Contains(t, out, "tok-09")
	assert.NotContains(t, out, "tok-10")
	assert.Contains(t, out, "and 3 more")
}

func TestConsole_Report_VerboseListsAllSkipped(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	var skipped []domain.SkippedMarket
	for i := 0; i < 13; i++ {
		skipped = append(skipped, domain.SkippedMarket{
			TokenID: fmt.Sprintf("tok-%02d", i),
			Reason:  "no price data",
		})
	}

	require.NoError(t, n.Report(context.Background(), domain.BacktestResult{Skipped: skipped}))

	out := buf.String()
	assert.Contains(t, out, "tok-12")
	assert.NotContains(t, out, "and 3 more")
}

func TestConsole_Report_LongQuestionTruncated(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	longQ := strings.Repeat("A", 60)
	result := domain.BacktestResult{
		Trades:  []domain.Trade{makeTrade(longQ, 150)},
		Summary: domain.Summary{Markets: 1, Trades: 1},
	}

	require.NoError(t, n.Report(context.Background(), result))
	assert.Contains(t, buf.String(), "...")
}
