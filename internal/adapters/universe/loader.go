package universe

// loader.go — universo de mercados desde un fichero JSON curado a mano.
//
// Cada registro necesita token_id, resolve_time y outcome; market_id cae a
// condition_id o al propio token si falta. Un registro malformado se
// devuelve como descarte con motivo y el resto del universo sigue adelante.

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

type rawMarket struct {
	TokenID     string `json:"token_id"`
	MarketID    string `json:"market_id"`
	ConditionID string `json:"condition_id"`
	Question    string `json:"question"`
	CreatedAt   string `json:"created_at"`
	ResolveTime string `json:"resolve_time"`
	Outcome     string `json:"outcome"`
}

// Load lee el universo desde path. Devuelve los mercados válidos en el orden
// del fichero y los registros rechazados con su motivo. Solo un fichero
// ilegible o un JSON inválido son errores fatales.
func Load(path string) ([]domain.MarketConfig, []domain.SkippedMarket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("universe.Load: %w", err)
	}

	var raw []rawMarket
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("universe.Load: parse %s: %w", path, err)
	}

	markets := make([]domain.MarketConfig, 0, len(raw))
	rejected := make([]domain.SkippedMarket, 0)
	for i, r := range raw {
		m, err := mapMarket(r)
		if err != nil {
			rejected = append(rejected, domain.SkippedMarket{
				TokenID: r.TokenID,
				Reason:  fmt.Sprintf("record %d: %v", i, err),
			})
			continue
		}
		markets = append(markets, m)
	}
	return markets, rejected, nil
}

// mapMarket convierte un registro raw a domain.MarketConfig validado.
func mapMarket(r rawMarket) (domain.MarketConfig, error) {
	outcome, err := domain.ParseSide(r.Outcome)
	if err != nil {
		return domain.MarketConfig{}, err
	}

	resolveTime, err := parseTimestamp(r.ResolveTime)
	if err != nil {
		return domain.MarketConfig{}, fmt.Errorf("%w: resolve_time %q", domain.ErrInvalidInput, r.ResolveTime)
	}

	createdAt := time.Time{}
	if r.CreatedAt != "" {
		createdAt, err = parseTimestamp(r.CreatedAt)
		if err != nil {
			return domain.MarketConfig{}, fmt.Errorf("%w: created_at %q", domain.ErrInvalidInput, r.CreatedAt)
		}
	}

	marketID := r.MarketID
	if marketID == "" {
		marketID = r.ConditionID
	}
	if marketID == "" {
		marketID = r.TokenID
	}

	m := domain.MarketConfig{
		TokenID:     r.TokenID,
		MarketID:    marketID,
		Question:    r.Question,
		CreatedAt:   createdAt,
		ResolveTime: resolveTime,
		Outcome:     outcome,
	}
	if err := m.Validate(); err != nil {
		return domain.MarketConfig{}, err
	}
	return m, nil
}

// parseTimestamp intenta los formatos habituales de los ficheros de universo.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
