// Package natsource exposes NATS subjects as stream leaves.
//
// Messages arrive on NATS goroutines and are hopped onto the loop before
// they reach any stream, so a subject can be embedded in a shape like any
// other stream:
//
//	prices := natsource.Subject(lp, natsource.FromConn(nc), "prices.eur", natsource.JSON[float64])
//	view := shape.MapOf("price", prices)
package natsource

import (
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/loop"
	"github.com/go-drift/reactive/pkg/stream"
)

// Subscriber subscribes a handler to a subject. The handler may be called
// from any goroutine.
type Subscriber interface {
	Subscribe(subject string, handler func(*nats.Msg)) (unsubscribe func() error, err error)
}

type connSubscriber struct {
	nc *nats.Conn
}

// FromConn adapts a NATS connection to Subscriber.
func FromConn(nc *nats.Conn) Subscriber {
	return connSubscriber{nc: nc}
}

func (c connSubscriber) Subscribe(subject string, handler func(*nats.Msg)) (func() error, error) {
	sub, err := c.nc.Subscribe(subject, handler)
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

// Decoder turns a message payload into a value.
type Decoder[T any] func(data []byte) (T, error)

// JSON decodes payloads as JSON.
func JSON[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// Text decodes payloads as UTF-8 strings.
func Text(data []byte) (string, error) {
	return string(data), nil
}

// Option configures Subject.
type Option func(*config)

type config struct {
	handler errors.ErrorHandler
}

// WithErrorHandler routes decode errors to h.
func WithErrorHandler(h errors.ErrorHandler) Option {
	return func(c *config) { c.handler = h }
}

// Subject returns a stream of the decoded messages published on subject.
//
// The stream is shared: however many shapes embed it, there is one NATS
// subscription while at least one is subscribed, and late subscribers
// receive the latest message. A message that fails to decode is reported
// and skipped. A failed subscription terminates the stream with the error.
func Subject[T any](sched loop.Scheduler, sub Subscriber, subject string, decode Decoder[T], opts ...Option) *stream.Stream[T] {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	src := stream.New(func(s *stream.Subscriber[T]) {
		unsubscribe, err := sub.Subscribe(subject, func(msg *nats.Msg) {
			v, err := decode(msg.Data)
			sched.Post(func() {
				if err != nil {
					errors.ReportTo(c.handler, &errors.ReactiveError{
						Op:        "natsource.decode",
						Kind:      errors.KindTransport,
						Err:       err,
						Component: subject,
					})
					return
				}
				s.Next(v)
			})
		})
		if err != nil {
			s.Error(&errors.ReactiveError{
				Op:        "natsource.Subscribe",
				Kind:      errors.KindTransport,
				Err:       err,
				Component: subject,
			})
			return
		}
		s.Add(func() { _ = unsubscribe() })
	})
	return stream.ShareReplay(src, 1)
}
