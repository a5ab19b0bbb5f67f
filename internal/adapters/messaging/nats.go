// Package messaging publishes delivered notifications on NATS so other
// services (mail, push, dashboards) can react to them.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/pkg/logger"
	"github.com/okian/vmatch/pkg/metrics"
)

// SubjectNotify is the subject prefix for user notifications: notify.<userId>.
const SubjectNotify = "notify"

const flushTimeout = 2 * time.Second

// NotifySubject returns the subject for one user.
func NotifySubject(userID int64) string {
	return SubjectNotify + "." + strconv.FormatInt(userID, 10)
}

// NATSClient wraps the NATS connection used to publish notifications.
type NATSClient struct {
	conn   *nats.Conn
	logger logger.Logger
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int // -1 for infinite
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "vmatch",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// NewNATSClient connects to NATS and returns a ready client.
func NewNATSClient(config NATSConfig, log logger.Logger) (*NATSClient, error) {
	ctx := context.Background()
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn(ctx, "nats disconnected", logger.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info(ctx, "nats reconnected", logger.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info(ctx, "nats connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info(ctx, "nats connected", logger.String("url", nc.ConnectedUrl()))

	return &NATSClient{conn: nc, logger: log}, nil
}

// Publish sends data to the given subject.
func (c *NATSClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// PublishNotification encodes n and publishes it on notify.<userId>.
func (c *NATSClient) PublishNotification(ctx context.Context, n model.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := c.Publish(NotifySubject(n.UserID), data); err != nil {
		metrics.RecordNATSPublish("error")
		return fmt.Errorf("nats publish: %w", err)
	}
	metrics.RecordNATSPublish("ok")
	c.logger.Debug(ctx, "notification published",
		logger.String("id", n.ID), logger.Int64("user_id", n.UserID))
	return nil
}

// Close flushes pending publishes and closes the connection.
func (c *NATSClient) Close() {
	if err := c.conn.FlushTimeout(flushTimeout); err != nil {
		c.logger.Warn(context.Background(), "nats flush on close failed", logger.Error(err))
	}
	c.conn.Close()
}
