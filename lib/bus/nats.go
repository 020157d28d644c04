package bus

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const (
	SubjectFileUpdated = "urnik.file.updated"
	SubjectFetched     = "urnik.fetched"
)

var ErrBusClosed = errors.New("bus is closed")

// NatsBus carries the events over a NATS connection so the scraper and
// the parser can run as separate processes.
type NatsBus struct {
	nc *nats.Conn
}

func NewNatsBus(url string) (*NatsBus, error) {
	nc, err := nats.Connect(url, nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	return &NatsBus{nc: nc}, nil
}

func (b *NatsBus) publish(subject string, ev any) error {
	if b.nc.IsClosed() {
		return ErrBusClosed
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.nc.Publish(subject, data)
}

func (b *NatsBus) PublishFileUpdated(ev FileUpdated) error {
	return b.publish(SubjectFileUpdated, ev)
}

func (b *NatsBus) PublishFetched(ev Fetched) error {
	return b.publish(SubjectFetched, ev)
}

func (b *NatsBus) Subscribe(h Handler) (func(), error) {
	updated, err := b.nc.Subscribe(SubjectFileUpdated, func(msg *nats.Msg) {
		var ev FileUpdated
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("malformed file.updated event", "err", err)
			return
		}
		h.HandleFileUpdated(ev)
	})
	if err != nil {
		return nil, err
	}

	fetched, err := b.nc.Subscribe(SubjectFetched, func(msg *nats.Msg) {
		var ev Fetched
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("malformed fetched event", "err", err)
			return
		}
		h.HandleFetched(ev)
	})
	if err != nil {
		updated.Unsubscribe()
		return nil, err
	}

	return func() {
		updated.Unsubscribe()
		fetched.Unsubscribe()
	}, nil
}

func (b *NatsBus) Close() error {
	err := b.nc.Drain()
	return err
}
