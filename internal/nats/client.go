// Package nats manages the NATS JetStream connection used for live
// direct-message delivery.
package nats

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/justicehub/platform/pkg/logger"
	"github.com/justicehub/platform/pkg/metrics"
)

const clientName = "justicehub-api"

// ErrNotConnected is returned by Ping while the connection is down.
var ErrNotConnected = errors.New("nats not connected")

// Config holds NATS connection configuration. TLS is enabled only when all
// three certificate paths are set.
type Config struct {
	URL      string
	CAFile   string
	CertFile string
	KeyFile  string
	Token    string
}

func (c Config) tlsEnabled() bool {
	return c.CAFile != "" && c.CertFile != "" && c.KeyFile != ""
}

// Client owns the NATS connection and its JetStream context.
type Client struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect dials the server and opens a JetStream context. A ctx deadline
// bounds the initial dial.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	log = log.Component("nats")

	opts, err := connectOptions(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	log.Info("connected to NATS",
		zap.String("url", nc.ConnectedUrl()),
		zap.Bool("tls", cfg.tlsEnabled()),
	)
	return &Client{conn: nc, js: js, logger: log}, nil
}

// connectOptions reconnects forever; the database keeps every message so
// a gap in live delivery only delays the SSE feed.
func connectOptions(ctx context.Context, cfg Config, log *logger.Logger) ([]nats.Option, error) {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(8 * 1024 * 1024),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			metrics.NATSConnectionEvents.WithLabelValues("disconnected").Inc()
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			metrics.NATSConnectionEvents.WithLabelValues("reconnected").Inc()
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			metrics.NATSConnectionEvents.WithLabelValues("closed").Inc()
			log.Info("NATS connection closed")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			fields := []zap.Field{zap.Error(err)}
			if sub != nil {
				fields = append(fields, zap.String("subject", sub.Subject))
			}
			log.Error("NATS error", fields...)
		}),
	}

	if cfg.tlsEnabled() {
		tlsConfig, err := loadTLS(cfg.CAFile, cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, nats.Secure(tlsConfig))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}
	return opts, nil
}

// JetStream returns the JetStream context.
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// Close drains pending publishes and closes the connection.
func (c *Client) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("NATS drain failed", zap.Error(err))
		c.conn.Close()
	}
}

// Ping round-trips to the server. Used by the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	if c.conn == nil || !c.conn.IsConnected() {
		return ErrNotConnected
	}
	return c.conn.FlushWithContext(ctx)
}

func loadTLS(caFile, certFile, keyFile string) (*tls.Config, error) {
	caPEM, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, errors.New("failed to parse CA certificate")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert: %w", err)
	}

	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
