package polymarket

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// priceHistoryResponse es la respuesta de GET /prices-history.
type priceHistoryResponse struct {
	History []pricePointRaw `json:"history"`
}

// pricePointRaw es un punto de la serie: epoch en segundos y precio YES.
type pricePointRaw struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
}
