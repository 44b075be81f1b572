package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrInsufficientQuantity = errors.New("cantidad insuficiente para ejecutar la venta")
	// ErrQueryFailure agrupa fallas de infraestructura: conexión, errores no reconocidos
	// del almacén y reintentos agotados. La causa se registra en el log, no se propaga.
	ErrQueryFailure = errors.New("no fue posible completar la consulta a la base de datos")
)
