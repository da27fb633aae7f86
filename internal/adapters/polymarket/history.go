package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// FetchPriceHistory descarga los cierres horarios del precio YES del token
// en [from, to]. Con interval=1h el CLOB devuelve el rango completo en una
// sola respuesta, sin paginación.
func (c *Client) FetchPriceHistory(ctx context.Context, tokenID string, from, to time.Time) (domain.PriceSeries, error) {
	url := fmt.Sprintf("%s/prices-history?market=%s&interval=1h&startTs=%d&endTs=%d",
		c.clobBase, tokenID, from.Unix(), to.Unix())

	var resp priceHistoryResponse
	if err := c.get(ctx, c.historyLimiter, url, &resp); err != nil {
		return nil, fmt.Errorf("polymarket.FetchPriceHistory: token %s: %w", tokenID, err)
	}

	series := mapPriceHistory(resp)
	slog.Debug("fetched price history",
		"token", tokenID[:min(8, len(tokenID))]+"...",
		"raw_points", len(resp.History),
		"bars", len(series),
	)
	return series, nil
}
