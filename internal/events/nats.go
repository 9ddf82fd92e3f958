package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const DefaultSubject = "tictactoe"

type NATSOptions struct {
	URL   string
	Token string
}

// ConnectNATS - opens a named connection, authenticating with a token when one is set.
func ConnectNATS(opts NATSOptions) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("tictactoe-wager"),
	}

	if opts.Token != "" {
		options = append(options, nats.Token(opts.Token))
	}

	conn, err := nats.Connect(opts.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return conn, nil
}

// NATSPublisher - publishes events as JSON on <subject>.<event type>.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}

	return &NATSPublisher{
		conn:    conn,
		subject: subject,
	}
}

func (that *NATSPublisher) Subject(eventType Type) string {
	return that.subject + "." + string(eventType)
}

func (that *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.conn.Publish(that.Subject(event.Type), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	return nil
}
