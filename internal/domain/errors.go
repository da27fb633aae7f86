package domain

import "errors"

// Errores centinela del dominio. Se comparan con errors.Is para decidir
// si un fallo aborta el run (configuración) o solo descarta un mercado.
var (
	// ErrInvalidInput indica datos de entrada malformados (mercado sin
	// token_id, outcome desconocido, timestamps imposibles). El registro
	// afectado se descarta; el run continúa.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indica parámetros de estrategia sin sentido
	// (ventana < 1h, umbral de compra <= umbral de venta, size <= 0).
	// Siempre fatal: se detecta antes de simular nada.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoPriceData indica que un mercado no tiene serie de precios
	// utilizable. El mercado se salta con motivo registrado.
	ErrNoPriceData = errors.New("no price data")

	// ErrUnknownToken indica que el universo referencia un token para el
	// que no se cargaron precios.
	ErrUnknownToken = errors.New("unknown token")

	// ErrNoSentimentCoverage indica que ninguna feature de sentimiento
	// cubre las horas candidatas de un mercado. No es fatal: equivale a
	// "sin señal", el mercado termina sin trade.
	ErrNoSentimentCoverage = errors.New("no sentiment coverage")
)
