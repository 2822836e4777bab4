// Package notify publishes notification signals for conversation
// participants that have no live session.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "chat.notify"

// Signal tells an offline user that a conversation received a message.
type Signal struct {
	UserID         string    `json:"userId"`
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	FromID         string    `json:"fromId"`
	FromName       string    `json:"fromName"`
	SentAt         time.Time `json:"sentAt"`
}

// Subject returns the per-user subject a signal is published on.
func Subject(prefix, userID string) string {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return fmt.Sprintf("%s.%s", prefix, userID)
}

// Nop discards signals. It is used when no broker is configured.
type Nop struct{}

func (Nop) NotifyOffline(context.Context, Signal) error { return nil }

// Publisher publishes signals on NATS core subjects.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	log    *zap.Logger
}

// Connect dials the NATS server at url.
func Connect(url, prefix string, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("chatrelay"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{nc: nc, prefix: prefix, log: log.Named("notify")}, nil
}

// NotifyOffline publishes sig on the subject of its user.
func (p *Publisher) NotifyOffline(ctx context.Context, sig Signal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}
	subject := Subject(p.prefix, sig.UserID)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish signal to subject '%s': %w", subject, err)
	}
	p.log.Debug("published offline signal", zap.String("subject", subject), zap.String("message", sig.MessageID))
	return nil
}

// Close drains pending publishes and closes the connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
