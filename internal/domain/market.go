package domain

import (
	"fmt"
	"strings"
	"time"
)

// Side es el lado de una posición en un mercado binario (YES o NO).
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// ParseSide normaliza un outcome textual ("yes", "Yes", "YES") a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SideYes):
		return SideYes, nil
	case string(SideNo):
		return SideNo, nil
	default:
		return "", fmt.Errorf("%w: outcome %q, expected YES or NO", ErrInvalidInput, s)
	}
}

// MarketConfig describe un mercado binario ya resuelto sobre el que se
// simula la estrategia. Outcome es el resultado real conocido a posteriori;
// el simulador solo lo consulta al liquidar, nunca al decidir la entrada.
type MarketConfig struct {
	TokenID     string // token YES en el CLOB, clave de la serie de precios
	MarketID    string // condition_id del mercado (informativo)
	Question    string
	CreatedAt   time.Time
	ResolveTime time.Time
	Outcome     Side // lado ganador real (YES/NO)
}

// Validate comprueba que el mercado es simulable. Un mercado inválido se
// descarta con motivo; nunca aborta el run completo.
func (m MarketConfig) Validate() error {
	if m.TokenID == "" {
		return fmt.Errorf("%w: market %q has no token_id", ErrInvalidInput, m.MarketID)
	}
	if m.ResolveTime.IsZero() {
		return fmt.Errorf("%w: market %s has no resolve_time", ErrInvalidInput, m.TokenID)
	}
	if !m.CreatedAt.IsZero() && !m.ResolveTime.After(m.CreatedAt) {
		return fmt.Errorf("%w: market %s resolves at %s, before creation %s",
			ErrInvalidInput, m.TokenID, m.ResolveTime.Format(time.RFC3339), m.CreatedAt.Format(time.RFC3339))
	}
	if m.Outcome != SideYes && m.Outcome != SideNo {
		return fmt.Errorf("%w: market %s outcome %q, expected YES or NO", ErrInvalidInput, m.TokenID, m.Outcome)
	}
	return nil
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen caracteres.
// Si la pregunta está vacía usa los primeros caracteres del tokenID como fallback.
func TruncateQuestion(question, tokenID string, maxLen int) string {
	q := question
	if q == "" {
		if len(tokenID) > 20 {
			q = tokenID[:20] + "..."
		} else {
			q = tokenID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
