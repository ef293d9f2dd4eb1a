// Package rules holds the reservation policy logic: the daily capacity limit,
// table conflict detection, the table diff used by group modification and the
// availability arithmetic.  Everything here is pure; persistence lives in the
// repository layer and orchestration in the service layer.
package rules

import (
	"sort"

	"github.com/pizzariabella/reservas-api/internal/model"
)

// LimiteMesas is the daily cap on active reservations.  It is a policy cap,
// deliberately decoupled from the number of physical tables.
const LimiteMesas = 30

// TotalMesas is the number of physical tables, numbered 1..TotalMesas.
const TotalMesas = 98

// Horarios are the fixed service slots a reservation may be booked into.
var Horarios = []string{"18:00", "18:30", "19:00", "19:30", "20:00"}

// HorarioValido reports whether the slot is one of the fixed service slots.
func HorarioValido(horario string) bool {
	for _, h := range Horarios {
		if h == horario {
			return true
		}
	}
	return false
}

// MesaValida reports whether a table number is inside the physical range.
func MesaValida(mesa int) bool { return mesa >= 1 && mesa <= TotalMesas }

// PodeReservar checks the daily cap: existing active rows plus the requested
// batch must not exceed LimiteMesas.
func PodeReservar(ativas, pedidas int) bool {
	return ativas+pedidas <= LimiteMesas
}

// Conflitos returns, in ascending order, the requested tables that already
// appear in the occupied set.  An empty result means no conflict.
func Conflitos(ocupadas []int, pedidas []int) []int {
	set := make(map[int]struct{}, len(ocupadas))
	for _, m := range ocupadas {
		set[m] = struct{}{}
	}
	var out []int
	seen := make(map[int]struct{}, len(pedidas))
	for _, m := range pedidas {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		if _, ok := set[m]; ok {
			out = append(out, m)
		}
	}
	sort.Ints(out)
	return out
}

// MesasLivres returns the free subset of the physical table space 1..TotalMesas
// given the occupied table numbers.  |livres| = TotalMesas - |ocupadas|.
func MesasLivres(ocupadas []int) []int {
	set := make(map[int]struct{}, len(ocupadas))
	for _, m := range ocupadas {
		set[m] = struct{}{}
	}
	livres := make([]int, 0, TotalMesas-len(set))
	for m := 1; m <= TotalMesas; m++ {
		if _, ok := set[m]; !ok {
			livres = append(livres, m)
		}
	}
	return livres
}

// DiffMesas computes the table reassignment for a group: tables to add (in the
// new set only), to remove (in the current set only) and to keep (in both).
// Results are sorted; duplicates in the inputs are ignored.
func DiffMesas(atuais, novas []int) (adicionar, remover, manter []int) {
	cur := make(map[int]struct{}, len(atuais))
	for _, m := range atuais {
		cur[m] = struct{}{}
	}
	next := make(map[int]struct{}, len(novas))
	for _, m := range novas {
		next[m] = struct{}{}
	}
	for m := range next {
		if _, ok := cur[m]; ok {
			manter = append(manter, m)
		} else {
			adicionar = append(adicionar, m)
		}
	}
	for m := range cur {
		if _, ok := next[m]; !ok {
			remover = append(remover, m)
		}
	}
	sort.Ints(adicionar)
	sort.Ints(remover)
	sort.Ints(manter)
	return adicionar, remover, manter
}

// Dedup returns the input table numbers with duplicates and non-positive
// values removed, preserving first-seen order.
func Dedup(mesas []int) []int {
	out := make([]int, 0, len(mesas))
	seen := make(map[int]struct{}, len(mesas))
	for _, m := range mesas {
		if m <= 0 {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// StatusCriacao normalizes the optional status supplied on create.  Only
// pendente and confirmada may be set by callers; anything else falls back to
// pendente.
func StatusCriacao(status string) string {
	if status == model.StatusConfirmada {
		return model.StatusConfirmada
	}
	return model.StatusPendente
}
