package entity

import "time"

// Lot representa un lote persistido de un ítem perecedero.
// Un lote está vigente mientras Expiry >= ahora.
type Lot struct {
	ID       int64
	Item     string
	Quantity int
	Expiry   time.Time
}

// IsLive indica si el lote sigue vigente en el instante now.
func (l Lot) IsLive(now time.Time) bool {
	return !l.Expiry.Before(now)
}

// ItemLot resume la disponibilidad de un ítem: cantidad vigente total y vencimiento más próximo.
// Expiry es nil cuando no hay lotes vigentes.
type ItemLot struct {
	Item     string
	Quantity int
	Expiry   *time.Time
}
