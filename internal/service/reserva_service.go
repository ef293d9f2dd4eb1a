package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/pizzariabella/reservas-api/internal/model"
	"github.com/pizzariabella/reservas-api/internal/queue"
	"github.com/pizzariabella/reservas-api/internal/repository"
	"github.com/pizzariabella/reservas-api/internal/rules"
)

// ReservaStore is the persistence surface the service depends on.  It is
// implemented by repository.ReservaRepo; tests supply in-memory fakes that
// ignore the transaction handle.
type ReservaStore interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	List(ctx context.Context, f repository.Filtro) ([]model.Reserva, error)
	GetByID(ctx context.Context, id string) (*model.Reserva, error)
	MesasOcupadas(ctx context.Context, data string) ([]int, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Reserva, error)
	GrupoByNumeroTx(ctx context.Context, tx *sql.Tx, numero int64) ([]model.Reserva, error)
	CountAtivasTx(ctx context.Context, tx *sql.Tx, data string) (int, error)
	MesasOcupadasTx(ctx context.Context, tx *sql.Tx, data string) ([]int, error)
	MesasOcupadasOutrosGruposTx(ctx context.Context, tx *sql.Tx, data string, numero int64) ([]int, error)
	InsertGrupoTx(ctx context.Context, tx *sql.Tx, reservas []model.Reserva) error
	UpdateRowTx(ctx context.Context, tx *sql.Tx, id string, campos map[string]interface{}) error
	UpdateGrupoTx(ctx context.Context, tx *sql.Tx, numero int64, campos map[string]interface{}) error
	DeleteMesasTx(ctx context.Context, tx *sql.Tx, numero int64, mesas []int) error
	CancelarGrupoTx(ctx context.Context, tx *sql.Tx, numero int64) error
	CancelarRowTx(ctx context.Context, tx *sql.Tx, id string) error
	NextNumeroTx(ctx context.Context, tx *sql.Tx) (int64, error)
}

// ConfigSource fetches the current webhook configuration; the dispatcher
// itself never reads configuration on its own.
type ConfigSource interface {
	ConfigAtiva(ctx context.Context) (*model.WebhookConfig, error)
}

// Notificador delivers webhook notifications.  Implemented by
// webhook.Dispatcher.
type Notificador interface {
	DispatchReserva(ctx context.Context, cfg *model.WebhookConfig, event string, res model.Reserva)
	DispatchGrupo(ctx context.Context, cfg *model.WebhookConfig, event string, reservas []model.Reserva)
}

// EventPublisher pushes lifecycle events onto the message broker.
type EventPublisher interface {
	PublishReservaEvent(ctx context.Context, event queue.ReservaEvent) error
}

// ReservaService orchestrates reservation operations: validation and policy
// checks run against the rules package, mutations run inside a single
// transaction, and lifecycle notifications fan out asynchronously after the
// mutation commits.  Notification failures never fail the operation.
type ReservaService struct {
	store     ReservaStore
	webhooks  ConfigSource
	notifier  Notificador
	publisher EventPublisher
}

// NewReservaService constructs a ReservaService.  store must be non-nil;
// webhooks, notifier and publisher may be nil to disable the corresponding
// notification path.
func NewReservaService(store ReservaStore, webhooks ConfigSource, notifier Notificador, publisher EventPublisher) *ReservaService {
	if store == nil {
		panic("nil store passed to NewReservaService")
	}
	return &ReservaService{store: store, webhooks: webhooks, notifier: notifier, publisher: publisher}
}

// Webhook event names, re-exported here so the service does not need to know
// about the webhook package's internals beyond the Notificador interface.
const (
	eventCriada     = "reserva_criada"
	eventAtualizada = "reserva_atualizada"
	eventCancelada  = "reserva_cancelada"
)

// Disponibilidade is the availability report for one date.  The free-table
// list covers the physical numbering space 1..98 while the availability
// counter is capped by the daily policy limit of 30.
type Disponibilidade struct {
	DataConsulta          string   `json:"data_consulta"`
	LimiteMesasPorDia     int      `json:"limite_mesas_por_dia"`
	TotalMesasReservadas  int      `json:"total_mesas_reservadas"`
	TotalMesasDisponiveis int      `json:"total_mesas_disponiveis"`
	MesasDisponiveisLista []int    `json:"mesas_disponiveis_lista"`
	HorariosDisponiveis   []string `json:"horarios_disponiveis"`
}

// ConsultarDisponibilidade computes the availability report for a date.
func (s *ReservaService) ConsultarDisponibilidade(ctx context.Context, data string) (*Disponibilidade, error) {
	if err := validarData(data); err != nil {
		return nil, err
	}
	ocupadas, err := s.store.MesasOcupadas(ctx, data)
	if err != nil {
		return nil, err
	}
	distintas := rules.Dedup(ocupadas)
	return &Disponibilidade{
		DataConsulta:          data,
		LimiteMesasPorDia:     rules.LimiteMesas,
		TotalMesasReservadas:  len(distintas),
		TotalMesasDisponiveis: rules.LimiteMesas - len(distintas),
		MesasDisponiveisLista: rules.MesasLivres(ocupadas),
		HorariosDisponiveis:   rules.Horarios,
	}, nil
}

// Listar returns the logical reservations matching the filter.  Unless the
// caller filtered by status or by reservation number, only active rows are
// returned; a numero_reserva lookup must also find cancelled groups.
func (s *ReservaService) Listar(ctx context.Context, f repository.Filtro) ([]rules.ReservaAgrupada, error) {
	if len(f.Statuses) == 0 && f.NumeroReserva == 0 {
		f.Statuses = model.StatusAtivos
	}
	reservas, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return rules.Agrupar(reservas), nil
}

// CriarReserva is the input for Criar.  Status is optional and restricted to
// pendente/confirmada; anything else falls back to pendente.
type CriarReserva struct {
	NomeCliente     string
	TelefoneCliente string
	DataReserva     string
	HorarioReserva  string
	Mesas           []int
	Observacoes     string
	Status          string
}

// Criar books a group of tables under one freshly allocated reservation
// number.  The capacity and conflict checks and the insert run inside one
// transaction, so concurrent creates for the same date cannot jointly
// overshoot the cap or double-book a table.
func (s *ReservaService) Criar(ctx context.Context, in CriarReserva) (*rules.ReservaAgrupada, error) {
	if in.NomeCliente == "" || in.TelefoneCliente == "" || in.DataReserva == "" || in.HorarioReserva == "" || len(in.Mesas) == 0 {
		return nil, &ErroValidacao{Mensagem: "Campos obrigatórios: nome_cliente, telefone_cliente, data_reserva, horario_reserva, e um array de mesas."}
	}
	if err := validarData(in.DataReserva); err != nil {
		return nil, err
	}
	if !rules.HorarioValido(in.HorarioReserva) {
		return nil, &ErroValidacao{Mensagem: fmt.Sprintf("horario_reserva inválido: %q", in.HorarioReserva)}
	}
	mesas := rules.Dedup(in.Mesas)
	if len(mesas) == 0 {
		return nil, &ErroValidacao{Mensagem: "O array de mesas não contém mesas válidas."}
	}
	for _, m := range mesas {
		if !rules.MesaValida(m) {
			return nil, &ErroValidacao{Mensagem: fmt.Sprintf("Mesa %d fora do intervalo 1..%d.", m, rules.TotalMesas)}
		}
	}

	var criadas []model.Reserva
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		ativas, err := s.store.CountAtivasTx(ctx, tx, in.DataReserva)
		if err != nil {
			return err
		}
		if !rules.PodeReservar(ativas, len(mesas)) {
			return &ErroLimiteMesas{}
		}
		ocupadas, err := s.store.MesasOcupadasTx(ctx, tx, in.DataReserva)
		if err != nil {
			return err
		}
		if conflitos := rules.Conflitos(ocupadas, mesas); len(conflitos) > 0 {
			return &ErroConflitoMesas{Mesas: conflitos}
		}
		numero, err := s.store.NextNumeroTx(ctx, tx)
		if err != nil {
			return err
		}
		agora := time.Now().UTC()
		status := rules.StatusCriacao(in.Status)
		criadas = make([]model.Reserva, 0, len(mesas))
		for _, m := range mesas {
			mesa := m
			criadas = append(criadas, model.Reserva{
				ID:              uuid.NewString(),
				CreatedAt:       agora,
				IDMesa:          &mesa,
				NomeCliente:     in.NomeCliente,
				TelefoneCliente: soDigitos(in.TelefoneCliente),
				DataReserva:     in.DataReserva,
				HorarioReserva:  in.HorarioReserva,
				Observacoes:     in.Observacoes,
				Status:          status,
				NumeroReserva:   &numero,
			})
		}
		return s.store.InsertGrupoTx(ctx, tx, criadas)
	})
	if err != nil {
		return nil, err
	}

	go s.notificarGrupo(eventCriada, criadas)

	grupos := rules.Agrupar(criadas)
	return &grupos[0], nil
}

// AtualizarRow applies a partial update to one row.  Unknown fields are
// discarded and id/created_at can never be overwritten.  Setting the status
// to cancelada releases the table into the historical column as part of the
// same update.
func (s *ReservaService) AtualizarRow(ctx context.Context, id string, body map[string]interface{}) (*model.Reserva, error) {
	campos, err := camposPermitidos(body)
	if err != nil {
		return nil, err
	}
	cancelamento := campos["status"] == model.StatusCancelada

	var atualizada *model.Reserva
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if cancelamento {
			delete(campos, "status")
			if err := s.store.CancelarRowTx(ctx, tx, id); err != nil {
				return err
			}
		}
		if err := s.store.UpdateRowTx(ctx, tx, id, campos); err != nil {
			return err
		}
		res, err := s.store.GetByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}
		atualizada = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := eventAtualizada
	if cancelamento {
		event = eventCancelada
	}
	go s.notificarReserva(event, *atualizada)
	return atualizada, nil
}

// DadosReserva carries the optional group-level fields accepted by
// ModificarMesas.  Nil pointers mean "keep the current value".
type DadosReserva struct {
	NomeCliente     *string
	TelefoneCliente *string
	DataReserva     *string
	HorarioReserva  *string
	Observacoes     *string
	Status          *string
}

// ModificarMesas reassigns the tables of a group by diff: tables missing from
// the new set are removed, new ones inserted under the same reservation
// number, and the remaining rows receive the partial field updates.  The
// whole reassignment runs in one transaction; a failure at any step leaves
// the group untouched.
func (s *ReservaService) ModificarMesas(ctx context.Context, idAncora string, novasMesas []int, dados DadosReserva) (*rules.ReservaAgrupada, error) {
	mesas := rules.Dedup(novasMesas)
	if len(mesas) == 0 {
		return nil, &ErroValidacao{Mensagem: "novas_mesas deve conter ao menos uma mesa válida."}
	}
	for _, m := range mesas {
		if !rules.MesaValida(m) {
			return nil, &ErroValidacao{Mensagem: fmt.Sprintf("Mesa %d fora do intervalo 1..%d.", m, rules.TotalMesas)}
		}
	}
	if dados.DataReserva != nil {
		if err := validarData(*dados.DataReserva); err != nil {
			return nil, err
		}
	}
	if dados.HorarioReserva != nil && !rules.HorarioValido(*dados.HorarioReserva) {
		return nil, &ErroValidacao{Mensagem: fmt.Sprintf("horario_reserva inválido: %q", *dados.HorarioReserva)}
	}
	if dados.Status != nil && !model.StatusValido(*dados.Status) {
		return nil, &ErroValidacao{Mensagem: "Status inválido."}
	}
	// The cancelada transition must release tables into the historical
	// column, so it goes through the group-cancel path instead of a plain
	// status update.
	cancelamento := dados.Status != nil && *dados.Status == model.StatusCancelada

	var refrescadas []model.Reserva
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		ancora, err := s.store.GetByIDTx(ctx, tx, idAncora)
		if err != nil {
			return err
		}
		if ancora.NumeroReserva == nil {
			return &ErroValidacao{Mensagem: "Reserva âncora não pertence a um grupo."}
		}
		numero := *ancora.NumeroReserva
		grupo, err := s.store.GrupoByNumeroTx(ctx, tx, numero)
		if err != nil {
			return err
		}

		data := ancora.DataReserva
		if dados.DataReserva != nil {
			data = *dados.DataReserva
		}

		ocupadas, err := s.store.MesasOcupadasOutrosGruposTx(ctx, tx, data, numero)
		if err != nil {
			return err
		}
		if conflitos := rules.Conflitos(ocupadas, mesas); len(conflitos) > 0 {
			return &ErroConflitoMesas{Mesas: conflitos}
		}

		atuais := make([]int, 0, len(grupo))
		for _, r := range grupo {
			if r.IDMesa != nil {
				atuais = append(atuais, *r.IDMesa)
			}
		}
		adicionar, remover, _ := rules.DiffMesas(atuais, mesas)

		if err := s.store.DeleteMesasTx(ctx, tx, numero, remover); err != nil {
			return err
		}

		if len(adicionar) > 0 {
			agora := time.Now().UTC()
			// On cancellation the fresh rows inherit the anchor's status;
			// CancelarGrupoTx below transitions the whole group at once.
			statusLinha := escolher(dados.Status, ancora.Status)
			if cancelamento {
				statusLinha = ancora.Status
			}
			novas := make([]model.Reserva, 0, len(adicionar))
			for _, m := range adicionar {
				mesa := m
				novas = append(novas, model.Reserva{
					ID:              uuid.NewString(),
					CreatedAt:       agora,
					IDMesa:          &mesa,
					NomeCliente:     escolher(dados.NomeCliente, ancora.NomeCliente),
					TelefoneCliente: soDigitos(escolher(dados.TelefoneCliente, ancora.TelefoneCliente)),
					DataReserva:     data,
					HorarioReserva:  escolher(dados.HorarioReserva, ancora.HorarioReserva),
					Observacoes:     escolher(dados.Observacoes, ancora.Observacoes),
					Status:          statusLinha,
					NumeroReserva:   &numero,
				})
			}
			if err := s.store.InsertGrupoTx(ctx, tx, novas); err != nil {
				return err
			}
		}

		campos := camposDeDados(dados)
		if cancelamento {
			delete(campos, "status")
		}
		if len(campos) > 0 {
			if err := s.store.UpdateGrupoTx(ctx, tx, numero, campos); err != nil {
				return err
			}
		}
		if cancelamento {
			if err := s.store.CancelarGrupoTx(ctx, tx, numero); err != nil {
				return err
			}
		}

		refrescadas, err = s.store.GrupoByNumeroTx(ctx, tx, numero)
		return err
	})
	if err != nil {
		return nil, err
	}

	event := eventAtualizada
	if cancelamento {
		event = eventCancelada
	}
	go s.notificarGrupo(event, refrescadas)

	grupos := rules.Agrupar(refrescadas)
	if len(grupos) == 0 {
		return nil, repository.ErrReservaNotFound
	}
	return &grupos[0], nil
}

// AtualizarStatusGrupo changes the status of every row sharing the anchor's
// reservation number.  The cancelada transition releases every table into
// the historical column.
func (s *ReservaService) AtualizarStatusGrupo(ctx context.Context, id, status string) ([]model.Reserva, error) {
	switch status {
	case model.StatusPendente, model.StatusConfirmada, model.StatusCancelada:
	default:
		return nil, &ErroValidacao{Mensagem: "Status inválido."}
	}

	var rows []model.Reserva
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		ancora, err := s.store.GetByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if ancora.NumeroReserva == nil {
			return &ErroValidacao{Mensagem: "Reserva âncora não pertence a um grupo."}
		}
		numero := *ancora.NumeroReserva
		if status == model.StatusCancelada {
			if err := s.store.CancelarGrupoTx(ctx, tx, numero); err != nil {
				return err
			}
		} else {
			if err := s.store.UpdateGrupoTx(ctx, tx, numero, map[string]interface{}{"status": status}); err != nil {
				return err
			}
		}
		rows, err = s.store.GrupoByNumeroTx(ctx, tx, numero)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrReservaNotFound
	}

	event := eventAtualizada
	if status == model.StatusCancelada {
		event = eventCancelada
	}
	go s.notificarGrupo(event, rows)
	return rows, nil
}

// CancelarRow soft-cancels one row.  Rows are never physically deleted.
func (s *ReservaService) CancelarRow(ctx context.Context, id string) (*model.Reserva, error) {
	var cancelada *model.Reserva
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.store.CancelarRowTx(ctx, tx, id); err != nil {
			return err
		}
		res, err := s.store.GetByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}
		cancelada = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	go s.notificarReserva(eventCancelada, *cancelada)
	return cancelada, nil
}

// notificarGrupo fans a group event out to the webhook endpoint and the
// broker.  Runs detached from the request; failures are logged only.
func (s *ReservaService) notificarGrupo(event string, reservas []model.Reserva) {
	if len(reservas) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if cfg := s.configAtiva(ctx); cfg != nil && s.notifier != nil {
		s.notifier.DispatchGrupo(ctx, cfg, event, reservas)
	}
	s.publicar(ctx, event, reservas)
}

func (s *ReservaService) notificarReserva(event string, res model.Reserva) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if cfg := s.configAtiva(ctx); cfg != nil && s.notifier != nil {
		s.notifier.DispatchReserva(ctx, cfg, event, res)
	}
	s.publicar(ctx, event, []model.Reserva{res})
}

func (s *ReservaService) configAtiva(ctx context.Context) *model.WebhookConfig {
	if s.webhooks == nil {
		return nil
	}
	cfg, err := s.webhooks.ConfigAtiva(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrConfigNotFound) {
			log.Printf("webhook: load config failed: %v", err)
		}
		return nil
	}
	return cfg
}

func (s *ReservaService) publicar(ctx context.Context, event string, reservas []model.Reserva) {
	if s.publisher == nil || len(reservas) == 0 {
		return
	}
	primeira := reservas[0]
	ev := queue.ReservaEvent{
		Event:           event,
		NomeCliente:     primeira.NomeCliente,
		TelefoneCliente: primeira.TelefoneCliente,
		DataReserva:     primeira.DataReserva,
		HorarioReserva:  primeira.HorarioReserva,
		Status:          primeira.Status,
		TotalMesas:      len(reservas),
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if primeira.NumeroReserva != nil {
		ev.NumeroReserva = *primeira.NumeroReserva
	}
	for _, r := range reservas {
		if mesa, ok := r.Mesa(); ok {
			ev.Mesas = append(ev.Mesas, mesa)
		}
	}
	// Publisher logs its own failures; nothing to do with the error here.
	_ = s.publisher.PublishReservaEvent(ctx, ev)
}

// camposPermitidos maps a raw JSON body onto the writable reservas columns.
// id and created_at are silently stripped, as are unknown keys.
func camposPermitidos(body map[string]interface{}) (map[string]interface{}, error) {
	campos := make(map[string]interface{})
	for key, val := range body {
		switch key {
		case "id", "created_at":
			// never writable
		case "id_mesa", "id_mesa_historico", "numero_reserva":
			if val == nil {
				campos[key] = nil
				continue
			}
			n, ok := val.(float64)
			if !ok {
				return nil, &ErroValidacao{Mensagem: fmt.Sprintf("Campo %s deve ser numérico.", key)}
			}
			campos[key] = int64(n)
		case "nome_cliente", "telefone_cliente", "observacoes":
			s, ok := val.(string)
			if !ok {
				return nil, &ErroValidacao{Mensagem: fmt.Sprintf("Campo %s deve ser texto.", key)}
			}
			if key == "telefone_cliente" {
				s = soDigitos(s)
			}
			campos[key] = s
		case "data_reserva":
			s, ok := val.(string)
			if !ok {
				return nil, &ErroValidacao{Mensagem: "Campo data_reserva deve ser texto."}
			}
			if err := validarData(s); err != nil {
				return nil, err
			}
			campos[key] = s
		case "horario_reserva":
			s, ok := val.(string)
			if !ok || !rules.HorarioValido(s) {
				return nil, &ErroValidacao{Mensagem: fmt.Sprintf("horario_reserva inválido: %v", val)}
			}
			campos[key] = s
		case "status":
			s, ok := val.(string)
			if !ok || !model.StatusValido(s) {
				return nil, &ErroValidacao{Mensagem: "Status inválido."}
			}
			campos[key] = s
		}
	}
	if len(campos) == 0 {
		return nil, &ErroValidacao{Mensagem: "Nenhum campo atualizável informado."}
	}
	return campos, nil
}

// camposDeDados renders the partial group fields as column assignments.
func camposDeDados(dados DadosReserva) map[string]interface{} {
	campos := make(map[string]interface{})
	if dados.NomeCliente != nil {
		campos["nome_cliente"] = *dados.NomeCliente
	}
	if dados.TelefoneCliente != nil {
		campos["telefone_cliente"] = soDigitos(*dados.TelefoneCliente)
	}
	if dados.DataReserva != nil {
		campos["data_reserva"] = *dados.DataReserva
	}
	if dados.HorarioReserva != nil {
		campos["horario_reserva"] = *dados.HorarioReserva
	}
	if dados.Observacoes != nil {
		campos["observacoes"] = *dados.Observacoes
	}
	if dados.Status != nil {
		campos["status"] = *dados.Status
	}
	return campos
}

func escolher(opcional *string, padrao string) string {
	if opcional != nil && *opcional != "" {
		return *opcional
	}
	return padrao
}

func validarData(data string) error {
	if data == "" {
		return &ErroValidacao{Mensagem: "Parâmetro data_reserva é obrigatório (YYYY-MM-DD)"}
	}
	if _, err := time.Parse("2006-01-02", data); err != nil {
		return &ErroValidacao{Mensagem: "data_reserva inválida, use o formato YYYY-MM-DD"}
	}
	return nil
}

func soDigitos(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c >= '0' && c <= '9' {
			out = append(out, c)
		}
	}
	return string(out)
}
