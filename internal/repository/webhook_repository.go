package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pizzariabella/reservas-api/internal/model"
)

// WebhookRepo reads the outbound notification configuration and appends
// delivery-attempt records.  The events column is stored as a JSON array.
type WebhookRepo struct {
	db *sql.DB
}

// NewWebhookRepo returns a new WebhookRepo bound to the given database.
func NewWebhookRepo(db *sql.DB) *WebhookRepo { return &WebhookRepo{db: db} }

// ConfigAtiva returns the first enabled configuration row, or
// ErrConfigNotFound when none is enabled.
func (r *WebhookRepo) ConfigAtiva(ctx context.Context) (*model.WebhookConfig, error) {
	const q = `SELECT id, endpoint_url, enabled, secret_key, events
	           FROM webhook_config WHERE enabled = TRUE LIMIT 1`
	var cfg model.WebhookConfig
	var secret sql.NullString
	var events []byte
	err := r.db.QueryRowContext(ctx, q).Scan(&cfg.ID, &cfg.EndpointURL, &cfg.Enabled, &secret, &events)
	if err == sql.ErrNoRows {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	if secret.Valid && secret.String != "" {
		s := secret.String
		cfg.SecretKey = &s
	}
	if len(events) > 0 {
		if err := json.Unmarshal(events, &cfg.Events); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LogAttempt appends one delivery-attempt record.
func (r *WebhookRepo) LogAttempt(ctx context.Context, configID, event string, success bool, errorMessage string) error {
	const q = `INSERT INTO webhook_logs (config_id, event, success, error_message) VALUES (?, ?, ?, ?)`
	var msg interface{}
	if errorMessage != "" {
		msg = errorMessage
	}
	_, err := r.db.ExecContext(ctx, q, configID, event, success, msg)
	return err
}
