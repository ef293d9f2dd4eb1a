package model

import "time"

// Status values stored in the reservas.status column.  The wire format keeps
// the Portuguese names used by every API client since the first release.
//
//	pendente   – created, awaiting confirmation by the restaurant.
//	confirmada – confirmed by the restaurant.
//	cancelada  – soft-cancelled; the table is released but the row is kept.
//	finalizada – the party showed up and the reservation is done.
const (
	StatusPendente   = "pendente"
	StatusConfirmada = "confirmada"
	StatusCancelada  = "cancelada"
	StatusFinalizada = "finalizada"
)

// StatusAtivos is the subset of statuses that occupy a table: these are the
// rows counted against the daily capacity limit and the conflict checks.
var StatusAtivos = []string{StatusPendente, StatusConfirmada}

// StatusAtivo reports whether a status occupies a table.
func StatusAtivo(status string) bool {
	for _, s := range StatusAtivos {
		if s == status {
			return true
		}
	}
	return false
}

// StatusAtivo reports whether the row occupies a table.
func (r *Reserva) StatusAtivo() bool { return StatusAtivo(r.Status) }

// StatusValido reports whether a status is one of the known enumeration values.
func StatusValido(status string) bool {
	switch status {
	case StatusPendente, StatusConfirmada, StatusCancelada, StatusFinalizada:
		return true
	}
	return false
}

// Reserva mirrors one row of the reservas table.  Each row binds exactly one
// table (mesa) to one calendar day for one client.  A logical multi-table
// booking is the set of rows sharing the same NumeroReserva; they are created
// together and carry identical client, date and time slot fields.
//
// Fields:
//
//	ID              – primary key (UUID, generated app-side).
//	CreatedAt       – creation timestamp (UTC).
//	IDMesa          – table number 1..98; nil once the row is cancelled.
//	IDMesaHistorico – table number the row held before cancellation.
//	NomeCliente     – client name.
//	TelefoneCliente – client phone, digits only.
//	DataReserva     – calendar day, serialized as YYYY-MM-DD.
//	HorarioReserva  – time slot, one of the fixed service slots.
//	Observacoes     – free-text notes.
//	Status          – see the status constants above.
//	NumeroReserva   – shared group number; nil only on legacy rows.
type Reserva struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	IDMesa          *int      `json:"id_mesa"`
	IDMesaHistorico *int      `json:"id_mesa_historico,omitempty"`
	NomeCliente     string    `json:"nome_cliente"`
	TelefoneCliente string    `json:"telefone_cliente"`
	DataReserva     string    `json:"data_reserva"`
	HorarioReserva  string    `json:"horario_reserva"`
	Observacoes     string    `json:"observacoes"`
	Status          string    `json:"status"`
	NumeroReserva   *int64    `json:"numero_reserva"`
}

// Mesa returns the table the row occupies, falling back to the historical
// table for cancelled rows.  The second return is false when neither is set.
func (r *Reserva) Mesa() (int, bool) {
	if r.IDMesa != nil {
		return *r.IDMesa, true
	}
	if r.IDMesaHistorico != nil {
		return *r.IDMesaHistorico, true
	}
	return 0, false
}
