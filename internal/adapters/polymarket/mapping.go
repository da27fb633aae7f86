package polymarket

import (
	"sort"
	"time"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// mapPriceHistory convierte la respuesta del CLOB a una PriceSeries limpia:
// epoch→UTC truncado a la hora, precios fuera de [0,1] descartados, y si la
// API repite una hora se queda el último punto. El resultado sale ordenado
// ascendente y sin duplicados, como exige el dominio.
func mapPriceHistory(raw priceHistoryResponse) domain.PriceSeries {
	byHour := make(map[int64]float64, len(raw.History))
	for _, p := range raw.History {
		if p.T <= 0 || p.P < 0 || p.P > 1 {
			continue
		}
		hour := time.Unix(p.T, 0).UTC().Truncate(time.Hour)
		byHour[hour.Unix()] = p.P
	}

	series := make(domain.PriceSeries, 0, len(byHour))
	for sec, price := range byHour {
		series = append(series, domain.PricePoint{TS: time.Unix(sec, 0).UTC(), Price: price})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].TS.Before(series[j].TS) })
	return series
}
