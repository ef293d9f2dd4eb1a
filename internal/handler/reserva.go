package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pizzariabella/reservas-api/internal/repository"
	"github.com/pizzariabella/reservas-api/internal/service"
)

// ReservaHandler exposes the reservation operations over HTTP.  All business
// rules live in the service; handlers only parse requests, map errors to
// status codes and shape JSON responses.
type ReservaHandler struct {
	svc *service.ReservaService
}

// NewReservaHandler constructs a ReservaHandler.  svc must be non-nil.
func NewReservaHandler(svc *service.ReservaService) *ReservaHandler {
	if svc == nil {
		panic("nil service passed to NewReservaHandler")
	}
	return &ReservaHandler{svc: svc}
}

// responderErro maps service and repository errors onto HTTP responses.
// Validation failures become 400, policy failures (capacity, conflict) 409,
// missing rows 404 and everything else a generic 500 carrying the underlying
// message for diagnostics.
func responderErro(c echo.Context, err error) error {
	var ev *service.ErroValidacao
	if errors.As(err, &ev) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ev.Mensagem})
	}
	var el *service.ErroLimiteMesas
	if errors.As(err, &el) {
		return c.JSON(http.StatusConflict, echo.Map{"error": el.Error()})
	}
	var ec *service.ErroConflitoMesas
	if errors.As(err, &ec) {
		return c.JSON(http.StatusConflict, echo.Map{"error": ec.Error(), "mesas_ocupadas": ec.Mesas})
	}
	if errors.Is(err, repository.ErrReservaNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Reserva não encontrada"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error":    "Erro interno do servidor",
		"detalhes": err.Error(),
	})
}

// Disponibilidade handles GET /disponibilidade.  data_reserva is required.
func (h *ReservaHandler) Disponibilidade(c echo.Context) error {
	disponibilidade, err := h.svc.ConsultarDisponibilidade(c.Request().Context(), c.QueryParam("data_reserva"))
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(http.StatusOK, disponibilidade)
}

// Listar handles GET /reservas.  Rows sharing a reservation number are
// collapsed into logical reservations before being returned.
func (h *ReservaHandler) Listar(c echo.Context) error {
	f := repository.Filtro{
		DataReserva:     c.QueryParam("data_reserva"),
		NomeCliente:     c.QueryParam("cliente_nome"),
		TelefoneCliente: c.QueryParam("cliente_telefone"),
	}
	if mesa := c.QueryParam("mesa"); mesa != "" {
		n, err := strconv.Atoi(mesa)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Parâmetro mesa inválido"})
		}
		f.Mesa = n
	}
	if numero := c.QueryParam("numero_reserva"); numero != "" {
		n, err := strconv.ParseInt(numero, 10, 64)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Parâmetro numero_reserva inválido"})
		}
		f.NumeroReserva = n
	}
	if status := c.QueryParam("status"); status != "" {
		for _, s := range strings.Split(status, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, s)
			}
		}
	}

	grupos, err := h.svc.Listar(c.Request().Context(), f)
	if err != nil {
		return responderErro(c, err)
	}
	if len(grupos) == 0 {
		message := "Nenhuma reserva encontrada para a data e status atuais. Para verificar mesas livres, use o endpoint /disponibilidade?data_reserva=YYYY-MM-DD"
		if f.NumeroReserva > 0 || f.TelefoneCliente != "" || f.NomeCliente != "" {
			message = "Nenhuma reserva encontrada com os filtros fornecidos."
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message":  message,
			"reservas": grupos,
			"total":    0,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservas": grupos,
		"total":    len(grupos),
	})
}

// Criar handles POST /reservas.  One row is inserted per requested table,
// all sharing a freshly allocated reservation number.
func (h *ReservaHandler) Criar(c echo.Context) error {
	var body struct {
		NomeCliente     string `json:"nome_cliente"`
		TelefoneCliente string `json:"telefone_cliente"`
		DataReserva     string `json:"data_reserva"`
		HorarioReserva  string `json:"horario_reserva"`
		Mesas           []int  `json:"mesas"`
		Observacoes     string `json:"observacoes"`
		Status          string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "JSON inválido no corpo da requisição."})
	}

	grupo, err := h.svc.Criar(c.Request().Context(), service.CriarReserva{
		NomeCliente:     body.NomeCliente,
		TelefoneCliente: body.TelefoneCliente,
		DataReserva:     body.DataReserva,
		HorarioReserva:  body.HorarioReserva,
		Mesas:           body.Mesas,
		Observacoes:     body.Observacoes,
		Status:          body.Status,
	})
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Reservas criadas com sucesso",
		"reserva": grupo,
	})
}

// ModificarMesas handles POST /reservas/modificar-mesas: the diff-based
// table reassignment for a whole group, resolved through any of its rows.
func (h *ReservaHandler) ModificarMesas(c echo.Context) error {
	var body struct {
		IDAncora     string `json:"id_ancora"`
		NovasMesas   []int  `json:"novas_mesas"`
		DadosReserva *struct {
			NomeCliente     *string `json:"nome_cliente"`
			TelefoneCliente *string `json:"telefone_cliente"`
			DataReserva     *string `json:"data_reserva"`
			HorarioReserva  *string `json:"horario_reserva"`
			Observacoes     *string `json:"observacoes"`
			Status          *string `json:"status"`
		} `json:"dados_reserva"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "JSON inválido no corpo da requisição."})
	}
	if body.IDAncora == "" || len(body.NovasMesas) == 0 || body.DadosReserva == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Campos obrigatórios: id_ancora, novas_mesas, dados_reserva."})
	}

	dados := service.DadosReserva{
		NomeCliente:     body.DadosReserva.NomeCliente,
		TelefoneCliente: body.DadosReserva.TelefoneCliente,
		DataReserva:     body.DadosReserva.DataReserva,
		HorarioReserva:  body.DadosReserva.HorarioReserva,
		Observacoes:     body.DadosReserva.Observacoes,
		Status:          body.DadosReserva.Status,
	}
	grupo, err := h.svc.ModificarMesas(c.Request().Context(), body.IDAncora, body.NovasMesas, dados)
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Reserva modificada com sucesso",
		"reserva": grupo,
	})
}

// AtualizarStatus handles POST /reservas/atualizar-status: a bulk status
// change for the anchor row's whole group.
func (h *ReservaHandler) AtualizarStatus(c echo.Context) error {
	var body struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "JSON inválido no corpo da requisição."})
	}
	if body.ID == "" || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Campos obrigatórios: id, status."})
	}

	rows, err := h.svc.AtualizarStatusGrupo(c.Request().Context(), body.ID, body.Status)
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Grupo de reservas atualizado com sucesso",
		"reservas": rows,
	})
}

// Atualizar handles PUT /reservas/:id, a partial single-row update.  The
// body is bound as a generic map so clients can send any subset of fields;
// id and created_at are stripped by the service.
func (h *ReservaHandler) Atualizar(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id é obrigatório"})
	}
	var body map[string]interface{}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "JSON inválido no corpo da requisição."})
	}

	res, err := h.svc.AtualizarRow(c.Request().Context(), id, body)
	if err != nil {
		return responderErro(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Reserva atualizada com sucesso",
		"reserva": res,
	})
}

// Cancelar handles DELETE /reservas/:id.  Cancellation is a status
// transition; the row is preserved with its table moved to the historical
// column.
func (h *ReservaHandler) Cancelar(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id é obrigatório"})
	}
	res, err := h.svc.CancelarRow(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReservaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Reserva não encontrada ou já estava cancelada"})
		}
		return responderErro(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Reserva cancelada com sucesso",
		"reserva": res,
	})
}
