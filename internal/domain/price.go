package domain

import (
	"sort"
	"time"
)

// PricePoint es un cierre horario del precio del token YES en el CLOB.
type PricePoint struct {
	TS    time.Time // hora UTC alineada (minutos y segundos a cero)
	Price float64   // precio del token YES, siempre en [0,1]
}

// PriceSeries es la serie horaria de un token: ordenada ascendente por TS y
// sin timestamps duplicados. Los adapters garantizan ambas propiedades al
// mapear la respuesta del CLOB.
type PriceSeries []PricePoint

// Clip devuelve la subserie con from <= TS <= to. Un from cero no acota por
// abajo (mercados sin created_at conocido).
func (s PriceSeries) Clip(from, to time.Time) PriceSeries {
	lo := 0
	if !from.IsZero() {
		lo = sort.Search(len(s), func(i int) bool { return !s[i].TS.Before(from) })
	}
	hi := sort.Search(len(s), func(i int) bool { return s[i].TS.After(to) })
	if lo >= hi {
		return nil
	}
	return s[lo:hi]
}
