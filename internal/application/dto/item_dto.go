package dto

import (
	"time"

	"github.com/jhoicas/perecederos-api/internal/domain/entity"
)

// AddLotRequest body para POST /{item}/add. Expiry en milisegundos desde epoch.
// Los punteros permiten distinguir un campo ausente de un cero.
type AddLotRequest struct {
	Quantity *int64 `json:"quantity"`
	Expiry   *int64 `json:"expiry"`
}

// SellRequest body para POST /{item}/sell.
type SellRequest struct {
	Quantity *int64 `json:"quantity"`
}

// QuantityResponse cantidad vigente del ítem. ValidTill es null si no hay lotes vigentes.
type QuantityResponse struct {
	Quantity  int    `json:"quantity"`
	ValidTill *int64 `json:"validTill"`
}

// LotResponse un lote almacenado.
type LotResponse struct {
	ID       int64  `json:"id"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Expiry   int64  `json:"expiry"`
	Live     bool   `json:"live"`
}

// ListLotsResponse lotes del ítem ordenados por vencimiento.
type ListLotsResponse struct {
	Total int           `json:"total"`
	Lots  []LotResponse `json:"lots"`
}

// MessageResponse confirmación simple.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewQuantityResponse convierte el resumen del ítem al formato de la API.
func NewQuantityResponse(in *entity.ItemLot) QuantityResponse {
	out := QuantityResponse{Quantity: in.Quantity}
	if in.Expiry != nil {
		ms := in.Expiry.UnixMilli()
		out.ValidTill = &ms
	}
	return out
}

// NewListLotsResponse convierte los lotes al formato de la API; now decide el campo live.
func NewListLotsResponse(lots []entity.Lot, now time.Time) ListLotsResponse {
	out := ListLotsResponse{Total: len(lots), Lots: make([]LotResponse, 0, len(lots))}
	for _, l := range lots {
		out.Lots = append(out.Lots, LotResponse{
			ID:       l.ID,
			Item:     l.Item,
			Quantity: l.Quantity,
			Expiry:   l.Expiry.UnixMilli(),
			Live:     l.IsLive(now),
		})
	}
	return out
}
