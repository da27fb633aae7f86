package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/alejandrodnm/polysent/internal/domain"
)

const (
	chartWidth  = "1200px"
	chartHeight = "500px"
)

// EChartsRenderer dibuja la curva de equity como un HTML standalone.
type EChartsRenderer struct {
	path string
}

// NewEChartsRenderer crea un renderer que escribe el chart en path.
func NewEChartsRenderer(path string) *EChartsRenderer {
	return &EChartsRenderer{path: path}
}

// Render genera el HTML con la curva de equity acumulada del run.
// Sin puntos de equity no hay nada que dibujar y no es un error.
func (r *EChartsRenderer) Render(ctx context.Context, result domain.BacktestResult) error {
	if len(result.Equity) == 0 {
		slog.Debug("no equity points to plot, skipping chart")
		return nil
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Equity curve",
			Subtitle: fmt.Sprintf("%d trades | total PnL %.2f USD | win rate %.1f%%",
				result.Summary.Trades, result.Summary.TotalPnL, result.Summary.WinRate*100),
			Left: "left",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "PnL (USD)", Scale: opts.Bool(true)}),
	)

	xAxis := make([]string, len(result.Equity))
	data := make([]opts.LineData, len(result.Equity))
	for i, p := range result.Equity {
		xAxis[i] = p.TS.UTC().Format("2006-01-02 15:04")
		data[i] = opts.LineData{Value: p.Equity}
	}

	line.SetXAxis(xAxis)
	line.AddSeries("Cumulative PnL", data,
		charts.WithLineStyleOpts(opts.LineStyle{Width: 2}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.2)}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("render.Render: create %q: %w", r.path, err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("render.Render: %w", err)
	}
	slog.Info("equity chart written", "path", r.path, "points", len(result.Equity))
	return nil
}
