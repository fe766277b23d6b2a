// Package events publishes domain events to a message bus.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"wallet_portfolio/internal/domain"
)

// SubjectTransactionRecorded carries every newly recorded transaction
const SubjectTransactionRecorded = "transactions.recorded"

// TransactionRecorded is the payload published after a transaction is stored
type TransactionRecorded struct {
	Type        string             `json:"type"`
	Transaction domain.Transaction `json:"transaction"`
	Timestamp   int64              `json:"timestamp"`
}

// Publisher announces recorded transactions
type Publisher interface {
	TransactionRecorded(tx *domain.Transaction) error
	Close()
}

// NATSPublisher publishes JSON events on core NATS subjects
type NATSPublisher struct {
	conn *nats.Conn
}

// Connect dials url with reconnects enabled
func Connect(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("wallet-portfolio"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logrus.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) TransactionRecorded(tx *domain.Transaction) error {
	data, err := json.Marshal(TransactionRecorded{
		Type:        SubjectTransactionRecorded,
		Transaction: *tx,
		Timestamp:   time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectTransactionRecorded, data)
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// Noop drops every event
type Noop struct{}

func (Noop) TransactionRecorded(*domain.Transaction) error { return nil }
func (Noop) Close()                                        {}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []domain.Transaction
}

func (r *Recorder) TransactionRecorded(tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *tx)
	return nil
}

func (r *Recorder) Close() {}

// Events returns a copy of what was published
func (r *Recorder) Events() []domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Transaction(nil), r.events...)
}
