// Package events publishes auth audit events to a message broker. The
// server itself enforces no lockout; the event stream lets an external
// limiter or alerting pipeline observe failed logins.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event kinds.
const (
	KindLoginSuccess = "login.success"
	KindLoginFailure = "login.failure"
	KindLogout       = "logout"
)

// Event is one auth-flow occurrence. UserID is zero for failures, where
// no account is resolved.
type Event struct {
	Kind   string    `json:"kind"`
	Email  string    `json:"email,omitempty"`
	UserID int       `json:"user_id,omitempty"`
	At     time.Time `json:"at"`
}

// Backend defines the broker-agnostic publish operations.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher wraps a backend with the event encoding and channel name.
// A nil Publisher is valid and drops all events.
type Publisher struct {
	backend Backend
	channel string
}

func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// Publish encodes and sends the event. Publishing is best effort: callers
// log failures but never fail the request over them.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if p == nil || p.backend == nil {
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.backend.Publish(ctx, p.channel, data, map[string]string{"kind": ev.Kind})
	return err
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
