package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHorarioValido(t *testing.T) {
	for _, h := range Horarios {
		assert.True(t, HorarioValido(h), h)
	}
	assert.False(t, HorarioValido("17:00"))
	assert.False(t, HorarioValido("20:30"))
	assert.False(t, HorarioValido(""))
}

func TestMesaValida(t *testing.T) {
	assert.False(t, MesaValida(0))
	assert.True(t, MesaValida(1))
	assert.True(t, MesaValida(TotalMesas))
	assert.False(t, MesaValida(TotalMesas+1))
	assert.False(t, MesaValida(-3))
}

func TestPodeReservar(t *testing.T) {
	tests := []struct {
		name    string
		ativas  int
		pedidas int
		want    bool
	}{
		{"dia vazio", 0, 1, true},
		{"exatamente no limite", 27, 3, true},
		{"uma acima do limite", 29, 2, false},
		{"lote inteiro acima", 0, LimiteMesas + 1, false},
		{"dia cheio", LimiteMesas, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PodeReservar(tt.ativas, tt.pedidas))
		})
	}
}

func TestConflitos(t *testing.T) {
	tests := []struct {
		name     string
		ocupadas []int
		pedidas  []int
		want     []int
	}{
		{"sem conflito", []int{1, 2, 3}, []int{4, 5}, nil},
		{"um conflito", []int{1, 2, 3}, []int{3, 4}, []int{3}},
		{"todos em conflito", []int{7, 8}, []int{8, 7}, []int{7, 8}},
		{"pedido duplicado conta uma vez", []int{5}, []int{5, 5}, []int{5}},
		{"nada ocupado", nil, []int{1, 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Conflitos(tt.ocupadas, tt.pedidas))
		})
	}
}

func TestMesasLivres(t *testing.T) {
	livres := MesasLivres(nil)
	assert.Len(t, livres, TotalMesas)
	assert.Equal(t, 1, livres[0])
	assert.Equal(t, TotalMesas, livres[len(livres)-1])

	livres = MesasLivres([]int{1, 2, 50})
	assert.Len(t, livres, TotalMesas-3)
	assert.NotContains(t, livres, 1)
	assert.NotContains(t, livres, 50)
	assert.Contains(t, livres, 3)

	// Occupied duplicates must not shrink the free set twice.
	livres = MesasLivres([]int{10, 10, 10})
	assert.Len(t, livres, TotalMesas-1)
}

func TestDiffMesas(t *testing.T) {
	adicionar, remover, manter := DiffMesas([]int{1, 2, 3}, []int{2, 3, 4})
	assert.Equal(t, []int{4}, adicionar)
	assert.Equal(t, []int{1}, remover)
	assert.Equal(t, []int{2, 3}, manter)
}

func TestDiffMesasSemMudanca(t *testing.T) {
	adicionar, remover, manter := DiffMesas([]int{5, 9}, []int{9, 5})
	assert.Empty(t, adicionar)
	assert.Empty(t, remover)
	assert.Equal(t, []int{5, 9}, manter)
}

func TestDiffMesasTrocaCompleta(t *testing.T) {
	adicionar, remover, manter := DiffMesas([]int{1}, []int{2, 3})
	assert.Equal(t, []int{2, 3}, adicionar)
	assert.Equal(t, []int{1}, remover)
	assert.Empty(t, manter)
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, Dedup([]int{3, 1, 3, 2, 1}))
	assert.Equal(t, []int{7}, Dedup([]int{0, -1, 7}))
	assert.Empty(t, Dedup(nil))
}

func TestStatusCriacao(t *testing.T) {
	assert.Equal(t, "confirmada", StatusCriacao("confirmada"))
	assert.Equal(t, "pendente", StatusCriacao("pendente"))
	assert.Equal(t, "pendente", StatusCriacao(""))
	assert.Equal(t, "pendente", StatusCriacao("cancelada"))
	assert.Equal(t, "pendente", StatusCriacao("qualquer"))
}
