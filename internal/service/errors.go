package service

import (
	"fmt"
	"strings"

	"github.com/pizzariabella/reservas-api/internal/rules"
)

// ErroValidacao is returned when a request carries missing or malformed
// fields.  Handlers translate it into an HTTP 400 response.
type ErroValidacao struct {
	Mensagem string
}

func (e *ErroValidacao) Error() string { return e.Mensagem }

// ErroLimiteMesas is returned when a create or reassignment would push a date
// past the daily capacity cap.  Handlers translate it into an HTTP 409.
type ErroLimiteMesas struct{}

func (e *ErroLimiteMesas) Error() string {
	return fmt.Sprintf("Limite de %d mesas por dia seria ultrapassado.", rules.LimiteMesas)
}

// ErroConflitoMesas is returned when requested tables are already held by
// active reservations on the target date.  Handlers translate it into an
// HTTP 409 naming the occupied tables.
type ErroConflitoMesas struct {
	Mesas []int
}

func (e *ErroConflitoMesas) Error() string {
	parts := make([]string, len(e.Mesas))
	for i, m := range e.Mesas {
		parts[i] = fmt.Sprintf("%d", m)
	}
	return "Mesas já ocupadas: " + strings.Join(parts, ", ")
}
