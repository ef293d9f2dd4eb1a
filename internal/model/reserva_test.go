package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestStatusAtivo(t *testing.T) {
	assert.True(t, StatusAtivo(StatusPendente))
	assert.True(t, StatusAtivo(StatusConfirmada))
	assert.False(t, StatusAtivo(StatusCancelada))
	assert.False(t, StatusAtivo(StatusFinalizada))
	assert.False(t, StatusAtivo("qualquer"))
}

func TestReservaStatusAtivo(t *testing.T) {
	r := Reserva{Status: StatusConfirmada}
	assert.True(t, r.StatusAtivo())

	r.Status = StatusCancelada
	assert.False(t, r.StatusAtivo())
}

func TestStatusValido(t *testing.T) {
	for _, s := range []string{StatusPendente, StatusConfirmada, StatusCancelada, StatusFinalizada} {
		assert.True(t, StatusValido(s), s)
	}
	assert.False(t, StatusValido(""))
	assert.False(t, StatusValido("ativa"))
}

func TestMesaPreferenciaPelaMesaAtiva(t *testing.T) {
	r := Reserva{IDMesa: intPtr(7), IDMesaHistorico: intPtr(3)}
	mesa, ok := r.Mesa()
	assert.True(t, ok)
	assert.Equal(t, 7, mesa)

	r.IDMesa = nil
	mesa, ok = r.Mesa()
	assert.True(t, ok)
	assert.Equal(t, 3, mesa)

	r.IDMesaHistorico = nil
	_, ok = r.Mesa()
	assert.False(t, ok)
}
