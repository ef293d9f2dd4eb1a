package model

import "time"

// WebhookConfig holds the outbound notification settings.  Only one enabled
// row is honored at a time; the dispatcher takes the first enabled one.
//
// Fields:
//
//	ID          – primary key identifier.
//	EndpointURL – destination that receives the POSTed payload.
//	Enabled     – whether deliveries are attempted at all.
//	SecretKey   – optional HMAC-SHA256 signing key.
//	Events      – subscribed event names (reserva_criada, reserva_atualizada,
//	              reserva_cancelada); stored as a JSON array.
type WebhookConfig struct {
	ID          string   `json:"id"`
	EndpointURL string   `json:"endpoint_url"`
	Enabled     bool     `json:"enabled"`
	SecretKey   *string  `json:"secret_key,omitempty"`
	Events      []string `json:"events"`
}

// Subscribed reports whether the config listens for the given event.
func (c *WebhookConfig) Subscribed(event string) bool {
	for _, e := range c.Events {
		if e == event {
			return true
		}
	}
	return false
}

// WebhookLog is one append-only record of a delivery attempt.
type WebhookLog struct {
	ID           uint64    `json:"id"`
	ConfigID     string    `json:"config_id"`
	Event        string    `json:"event"`
	Success      bool      `json:"success"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
