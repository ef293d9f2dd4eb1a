// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservaEvent is published whenever a reservation group is created, updated
// or cancelled.  It carries enough information for downstream consumers
// (floor-plan mirrors, notification bots, analytics) to react without
// querying the primary database.
type ReservaEvent struct {
	Event           string `json:"event"`
	NumeroReserva   int64  `json:"numero_reserva"`
	NomeCliente     string `json:"nome_cliente"`
	TelefoneCliente string `json:"telefone_cliente"`
	DataReserva     string `json:"data_reserva"`
	HorarioReserva  string `json:"horario_reserva"`
	Mesas           []int  `json:"mesas"`
	TotalMesas      int    `json:"total_mesas"`
	Status          string `json:"status"`
	OccurredAt      string `json:"occurred_at"`
}
