package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/EgorLis/kosbot/internal/roster"
)

// Admitted — payload события о новой записи в KOS-листе.
type Admitted struct {
	Roster     string    `json:"roster"`
	Name       string    `json:"name"`
	Secondary  string    `json:"secondary"`
	AdmittedAt time.Time `json:"admitted_at"`
}

func NewAdmitted(e roster.Entry, at time.Time) Admitted {
	return Admitted{
		Roster:     e.Kind().String(),
		Name:       e.DisplayName(),
		Secondary:  e.Secondary(),
		AdmittedAt: at.UTC(),
	}
}

// publisher — то, что нужно от *nats.Conn.
type publisher interface {
	Publish(subj string, data []byte) error
}

// NATSNotifier публикует события в NATS. Ошибки только логируются:
// ростер от этого не зависит.
type NATSNotifier struct {
	nc      publisher
	conn    *nats.Conn
	subject string
	log     *slog.Logger
	now     func() time.Time
}

func Connect(url, subject string, log *slog.Logger) (*NATSNotifier, error) {
	nc, err := nats.Connect(url, nats.Name("kosbot"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n := newNotifier(nc, subject, log)
	n.conn = nc
	return n, nil
}

func newNotifier(nc publisher, subject string, log *slog.Logger) *NATSNotifier {
	return &NATSNotifier{nc: nc, subject: subject, log: log, now: time.Now}
}

func (n *NATSNotifier) Admitted(_ context.Context, e roster.Entry) {
	data, err := json.Marshal(NewAdmitted(e, n.now()))
	if err != nil {
		n.log.Error("marshal roster event", "error", err)
		return
	}
	if err := n.nc.Publish(n.subject, data); err != nil {
		n.log.Error("publish roster event", "subject", n.subject, "error", err)
		return
	}
	n.log.Debug("roster event published", "subject", n.subject, "name", e.DisplayName())
}

// Close дренирует соединение.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
