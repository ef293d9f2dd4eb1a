// Package webhook delivers reservation lifecycle notifications to the
// configured external endpoint.  Payloads are signed with HMAC-SHA256 when a
// secret key is configured.  Delivery is best effort: every attempt is
// recorded, failures are never propagated to the caller, and there is no
// retry queue.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pizzariabella/reservas-api/internal/model"
)

// Event names carried in the payload and the X-Webhook-Event header.
const (
	EventReservaCriada     = "reserva_criada"
	EventReservaAtualizada = "reserva_atualizada"
	EventReservaCancelada  = "reserva_cancelada"
)

const userAgent = "Pizzaria-Webhook/1.0"

// envioTimeout bounds each delivery attempt.
const envioTimeout = 10 * time.Second

// Cliente identifies the booking client inside a payload.
type Cliente struct {
	Nome     string `json:"nome"`
	Telefone string `json:"telefone"`
}

// Payload is the JSON body POSTed to the endpoint.  Data carries either a
// single reserva object or a reservas array, depending on whether the
// triggering operation touched one row or a whole group.
type Payload struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Data      PayloadData `json:"data"`
}

// PayloadData is the event-specific body.  Mesas holds the table number of
// each affected row; cancelled rows report the table they held before
// cancellation.  Entries may be null for rows that never had a table.
type PayloadData struct {
	Reserva        *model.Reserva  `json:"reserva,omitempty"`
	Reservas       []model.Reserva `json:"reservas,omitempty"`
	Cliente        Cliente         `json:"cliente"`
	Mesas          []*int          `json:"mesas"`
	TotalMesas     int             `json:"total_mesas"`
	DataReserva    string          `json:"data_reserva,omitempty"`
	HorarioReserva string          `json:"horario_reserva,omitempty"`
	Observacoes    string          `json:"observacoes,omitempty"`
	Source         string          `json:"source"`
}

// payloadSource marks deliveries as coming from the API itself, as opposed
// to a manual resend or an import job.
const payloadSource = "api"

// AttemptLogger records each delivery attempt.  The repository layer
// implements it against the webhook_logs table.
type AttemptLogger interface {
	LogAttempt(ctx context.Context, configID, event string, success bool, errorMessage string) error
}

// Dispatcher sends signed payloads to the configured endpoint.  The
// configuration row is passed in by the caller on every dispatch; the
// dispatcher holds no mutable config state of its own.
type Dispatcher struct {
	client *http.Client
	logs   AttemptLogger
}

// NewDispatcher returns a Dispatcher that records attempts through logs.
func NewDispatcher(logs AttemptLogger) *Dispatcher {
	return &Dispatcher{
		client: &http.Client{Timeout: envioTimeout},
		logs:   logs,
	}
}

// DispatchReserva notifies a single-row event.  No-op when cfg is nil or the
// event is not subscribed.
func (d *Dispatcher) DispatchReserva(ctx context.Context, cfg *model.WebhookConfig, event string, res model.Reserva) {
	payload := Payload{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: PayloadData{
			Reserva:    &res,
			Cliente:    Cliente{Nome: res.NomeCliente, Telefone: res.TelefoneCliente},
			Mesas:      []*int{mesaNotificada(res)},
			TotalMesas: 1,
			Source:     payloadSource,
		},
	}
	d.dispatch(ctx, cfg, event, payload)
}

// DispatchGrupo notifies a group event.  The client, date and slot fields are
// taken from the first row, which by construction are shared by the group.
func (d *Dispatcher) DispatchGrupo(ctx context.Context, cfg *model.WebhookConfig, event string, reservas []model.Reserva) {
	if len(reservas) == 0 {
		return
	}
	primeira := reservas[0]
	mesas := make([]*int, len(reservas))
	for i, r := range reservas {
		mesas[i] = mesaNotificada(r)
	}
	payload := Payload{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: PayloadData{
			Reservas:       reservas,
			Cliente:        Cliente{Nome: primeira.NomeCliente, Telefone: primeira.TelefoneCliente},
			Mesas:          mesas,
			TotalMesas:     len(reservas),
			DataReserva:    primeira.DataReserva,
			HorarioReserva: primeira.HorarioReserva,
			Observacoes:    primeira.Observacoes,
			Source:         payloadSource,
		},
	}
	d.dispatch(ctx, cfg, event, payload)
}

// mesaNotificada picks the table number reported for a row: the live table,
// or for cancelled rows the one it held before cancellation.
func mesaNotificada(r model.Reserva) *int {
	if r.Status == model.StatusCancelada {
		return r.IDMesaHistorico
	}
	return r.IDMesa
}

func (d *Dispatcher) dispatch(ctx context.Context, cfg *model.WebhookConfig, event string, payload Payload) {
	if cfg == nil || !cfg.Enabled {
		return
	}
	if !cfg.Subscribed(event) {
		log.Printf("webhook: event %s not configured, skipping", event)
		return
	}
	err := d.send(ctx, cfg, payload)
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		log.Printf("webhook: delivery to %s failed: %v", cfg.EndpointURL, err)
	} else {
		log.Printf("webhook: sent %s to %s", event, cfg.EndpointURL)
	}
	if d.logs != nil {
		if logErr := d.logs.LogAttempt(ctx, cfg.ID, event, err == nil, errMsg); logErr != nil {
			log.Printf("webhook: log attempt failed: %v", logErr)
		}
	}
}

// send builds, signs and POSTs the payload.  Any non-2xx response counts as
// a failure.
func (d *Dispatcher) send(ctx context.Context, cfg *model.WebhookConfig, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Webhook-Event", payload.Event)
	req.Header.Set("X-Webhook-Timestamp", payload.Timestamp)
	if cfg.SecretKey != nil && *cfg.SecretKey != "" {
		req.Header.Set("X-Webhook-Signature", Assinar(*cfg.SecretKey, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// Assinar computes the payload signature: "sha256=" followed by the
// hex-encoded HMAC-SHA256 of the body under the secret key.
func Assinar(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
