package rules

import (
	"time"

	"github.com/pizzariabella/reservas-api/internal/model"
)

// ReservaAgrupada is the read-side projection of a logical multi-table
// booking: the rows sharing one numero_reserva collapsed into a single object
// with an aggregated table list.  IDAncora is the id of the first row
// encountered and is the handle group-level operations accept.
type ReservaAgrupada struct {
	IDAncora        string `json:"id_ancora"`
	CreatedAt       string `json:"created_at"`
	NomeCliente     string `json:"nome_cliente"`
	TelefoneCliente string `json:"telefone_cliente"`
	DataReserva     string `json:"data_reserva"`
	HorarioReserva  string `json:"horario_reserva"`
	Observacoes     string `json:"observacoes"`
	Status          string `json:"status"`
	NumeroReserva   int64  `json:"numero_reserva"`
	Mesas           []int  `json:"mesas"`
}

// Agrupar collapses rows sharing a numero_reserva into logical reservations,
// preserving the order in which groups first appear.  Rows without a
// numero_reserva predate grouping and are skipped.
func Agrupar(reservas []model.Reserva) []ReservaAgrupada {
	grupos := make([]ReservaAgrupada, 0)
	index := make(map[int64]int)
	for _, r := range reservas {
		if r.NumeroReserva == nil {
			continue
		}
		numero := *r.NumeroReserva
		mesa, temMesa := r.Mesa()
		if i, ok := index[numero]; ok {
			if temMesa {
				grupos[i].Mesas = append(grupos[i].Mesas, mesa)
			}
			continue
		}
		g := ReservaAgrupada{
			IDAncora:        r.ID,
			NomeCliente:     r.NomeCliente,
			TelefoneCliente: r.TelefoneCliente,
			DataReserva:     r.DataReserva,
			HorarioReserva:  r.HorarioReserva,
			Observacoes:     r.Observacoes,
			Status:          r.Status,
			NumeroReserva:   numero,
			Mesas:           []int{},
		}
		if !r.CreatedAt.IsZero() {
			g.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
		}
		if temMesa {
			g.Mesas = append(g.Mesas, mesa)
		}
		index[numero] = len(grupos)
		grupos = append(grupos, g)
	}
	return grupos
}
