package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzariabella/reservas-api/internal/model"
)

type attemptRecorder struct {
	mu       sync.Mutex
	attempts []struct {
		ConfigID string
		Event    string
		Success  bool
		Message  string
	}
}

func (a *attemptRecorder) LogAttempt(_ context.Context, configID, event string, success bool, errorMessage string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts = append(a.attempts, struct {
		ConfigID string
		Event    string
		Success  bool
		Message  string
	}{configID, event, success, errorMessage})
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func configFor(url string, events ...string) *model.WebhookConfig {
	return &model.WebhookConfig{
		ID:          "cfg-1",
		EndpointURL: url,
		Enabled:     true,
		SecretKey:   strPtr("segredo"),
		Events:      events,
	}
}

func reservaExemplo() model.Reserva {
	return model.Reserva{
		ID:              "r-1",
		IDMesa:          intPtr(12),
		NomeCliente:     "Bruno Lima",
		TelefoneCliente: "11977776666",
		DataReserva:     "2026-04-01",
		HorarioReserva:  "18:30",
		Status:          model.StatusPendente,
	}
}

func TestAssinar(t *testing.T) {
	// Vetor de teste do RFC 4231 (caso 1): chave 0x0b*20, dado "Hi There".
	key := string(bytes.Repeat([]byte{0x0b}, 20))
	assert.Equal(t,
		"sha256=b0344c61d8db38535ca8afceaf0bf12b881dc200c9833da726e9376c2e32cff7",
		Assinar(key, []byte("Hi There")))

	sig := Assinar("segredo", []byte("corpo"))
	assert.Len(t, sig, len("sha256=")+64)
	assert.Equal(t, "sha256=", sig[:7])
	// Same input, same signature; different secret, different signature.
	assert.Equal(t, sig, Assinar("segredo", []byte("corpo")))
	assert.NotEqual(t, sig, Assinar("outro", []byte("corpo")))
	assert.NotEqual(t, sig, Assinar("segredo", []byte("corpo2")))
}

func TestDispatchReservaEntregaAssinado(t *testing.T) {
	var (
		gotHeaders http.Header
		gotBody    []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logs := &attemptRecorder{}
	d := NewDispatcher(logs)
	d.DispatchReserva(context.Background(), configFor(srv.URL, EventReservaCriada), EventReservaCriada, reservaExemplo())

	require.NotNil(t, gotBody)
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "Pizzaria-Webhook/1.0", gotHeaders.Get("User-Agent"))
	assert.Equal(t, EventReservaCriada, gotHeaders.Get("X-Webhook-Event"))
	assert.NotEmpty(t, gotHeaders.Get("X-Webhook-Timestamp"))

	// Signature must match the body the server actually received.
	wantSig := Assinar("segredo", gotBody)
	assert.True(t, hmac.Equal([]byte(wantSig), []byte(gotHeaders.Get("X-Webhook-Signature"))))

	var payload Payload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, EventReservaCriada, payload.Event)
	require.NotNil(t, payload.Data.Reserva)
	assert.Equal(t, "r-1", payload.Data.Reserva.ID)
	assert.Equal(t, "Bruno Lima", payload.Data.Cliente.Nome)
	assert.Equal(t, 1, payload.Data.TotalMesas)
	assert.Equal(t, "api", payload.Data.Source)
	require.Len(t, payload.Data.Mesas, 1)
	assert.Equal(t, 12, *payload.Data.Mesas[0])

	require.Len(t, logs.attempts, 1)
	assert.True(t, logs.attempts[0].Success)
	assert.Equal(t, "cfg-1", logs.attempts[0].ConfigID)
}

func TestDispatchGrupoListaTodasAsMesas(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	r1 := reservaExemplo()
	r2 := reservaExemplo()
	r2.ID = "r-2"
	r2.IDMesa = intPtr(13)

	d := NewDispatcher(nil)
	d.DispatchGrupo(context.Background(), configFor(srv.URL, EventReservaAtualizada), EventReservaAtualizada, []model.Reserva{r1, r2})

	var payload Payload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Len(t, payload.Data.Reservas, 2)
	assert.Equal(t, 2, payload.Data.TotalMesas)
	require.Len(t, payload.Data.Mesas, 2)
	assert.Equal(t, 12, *payload.Data.Mesas[0])
	assert.Equal(t, 13, *payload.Data.Mesas[1])
	assert.Equal(t, "2026-04-01", payload.Data.DataReserva)
	assert.Equal(t, "18:30", payload.Data.HorarioReserva)
	assert.Equal(t, "api", payload.Data.Source)
}

func TestDispatchGrupoCanceladaUsaMesaHistorica(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	r := reservaExemplo()
	r.Status = model.StatusCancelada
	r.IDMesa = nil
	r.IDMesaHistorico = intPtr(12)

	d := NewDispatcher(nil)
	d.DispatchGrupo(context.Background(), configFor(srv.URL, EventReservaCancelada), EventReservaCancelada, []model.Reserva{r})

	var payload Payload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Len(t, payload.Data.Mesas, 1)
	assert.Equal(t, 12, *payload.Data.Mesas[0])
}

func TestDispatchIgnoraEventoNaoAssinado(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	logs := &attemptRecorder{}
	d := NewDispatcher(logs)
	// Config subscribes only to creations; an update must be a no-op.
	d.DispatchReserva(context.Background(), configFor(srv.URL, EventReservaCriada), EventReservaAtualizada, reservaExemplo())

	assert.False(t, called)
	assert.Empty(t, logs.attempts)
}

func TestDispatchSemConfigOuDesabilitado(t *testing.T) {
	logs := &attemptRecorder{}
	d := NewDispatcher(logs)

	d.DispatchReserva(context.Background(), nil, EventReservaCriada, reservaExemplo())

	cfg := configFor("http://127.0.0.1:1", EventReservaCriada)
	cfg.Enabled = false
	d.DispatchReserva(context.Background(), cfg, EventReservaCriada, reservaExemplo())

	assert.Empty(t, logs.attempts)
}

func TestDispatchRegistraFalhaEmRespostaNao2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	logs := &attemptRecorder{}
	d := NewDispatcher(logs)
	d.DispatchReserva(context.Background(), configFor(srv.URL, EventReservaCriada), EventReservaCriada, reservaExemplo())

	require.Len(t, logs.attempts, 1)
	assert.False(t, logs.attempts[0].Success)
	assert.Contains(t, logs.attempts[0].Message, "500")
}

func TestDispatchSemSecretNaoAssina(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
	}))
	defer srv.Close()

	cfg := configFor(srv.URL, EventReservaCriada)
	cfg.SecretKey = nil

	d := NewDispatcher(nil)
	d.DispatchReserva(context.Background(), cfg, EventReservaCriada, reservaExemplo())

	require.NotNil(t, gotHeaders)
	assert.Empty(t, gotHeaders.Get("X-Webhook-Signature"))
}
