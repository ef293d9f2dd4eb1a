package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pizzariabella/reservas-api/internal/model"
)

func mesaPtr(m int) *int       { return &m }
func numeroPtr(n int64) *int64 { return &n }

func linha(id string, numero int64, mesa int) model.Reserva {
	return model.Reserva{
		ID:              id,
		CreatedAt:       time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		IDMesa:          mesaPtr(mesa),
		NomeCliente:     "Ana Souza",
		TelefoneCliente: "11988887777",
		DataReserva:     "2026-03-20",
		HorarioReserva:  "19:00",
		Status:          model.StatusPendente,
		NumeroReserva:   numeroPtr(numero),
	}
}

func TestAgruparJuntaMesasDoMesmoNumero(t *testing.T) {
	grupos := Agrupar([]model.Reserva{
		linha("a", 100, 1),
		linha("b", 100, 2),
		linha("c", 100, 3),
	})

	assert.Len(t, grupos, 1)
	g := grupos[0]
	assert.Equal(t, "a", g.IDAncora)
	assert.Equal(t, int64(100), g.NumeroReserva)
	assert.Equal(t, []int{1, 2, 3}, g.Mesas)
	assert.Equal(t, "Ana Souza", g.NomeCliente)
	assert.Equal(t, "2026-03-14T12:00:00Z", g.CreatedAt)
}

func TestAgruparPreservaOrdemDosGrupos(t *testing.T) {
	grupos := Agrupar([]model.Reserva{
		linha("a", 200, 10),
		linha("b", 100, 5),
		linha("c", 200, 11),
	})

	assert.Len(t, grupos, 2)
	assert.Equal(t, int64(200), grupos[0].NumeroReserva)
	assert.Equal(t, []int{10, 11}, grupos[0].Mesas)
	assert.Equal(t, int64(100), grupos[1].NumeroReserva)
	assert.Equal(t, []int{5}, grupos[1].Mesas)
}

func TestAgruparIgnoraLinhasSemNumero(t *testing.T) {
	semNumero := linha("x", 0, 4)
	semNumero.NumeroReserva = nil

	grupos := Agrupar([]model.Reserva{semNumero, linha("a", 300, 7)})

	assert.Len(t, grupos, 1)
	assert.Equal(t, "a", grupos[0].IDAncora)
}

func TestAgruparUsaMesaHistoricaQuandoCancelada(t *testing.T) {
	r := linha("a", 400, 0)
	r.IDMesa = nil
	r.IDMesaHistorico = mesaPtr(22)
	r.Status = model.StatusCancelada

	grupos := Agrupar([]model.Reserva{r})

	assert.Len(t, grupos, 1)
	assert.Equal(t, []int{22}, grupos[0].Mesas)
}

func TestAgruparVazio(t *testing.T) {
	grupos := Agrupar(nil)
	assert.NotNil(t, grupos)
	assert.Empty(t, grupos)
}
