package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"

	"github.com/playperu/cuetimer/internal/wire"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxBackoff   = 30 * time.Second
)

// Options configures the pollers and stream followers.
type Options struct {
	Interval   time.Duration // poll cadence, and the first retry delay
	MaxBackoff time.Duration // retry delay cap
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = DefaultMaxBackoff
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

func newBackOff(o Options) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.Interval
	b.MaxInterval = o.MaxBackoff
	b.MaxElapsedTime = 0
	b.Clock = o.Clock
	b.Reset()
	return b
}

// nextDelay caps the randomized backoff so no retry waits longer than the
// configured maximum.
func nextDelay(b *backoff.ExponentialBackOff) time.Duration {
	return min(b.NextBackOff(), b.MaxInterval)
}

// Poller follows a room in pull mode.
type Poller struct {
	client *Client
	code   string
	opts   Options
}

func NewPoller(c *Client, code string, opts Options) *Poller {
	return &Poller{client: c, code: code, opts: opts.withDefaults()}
}

// Run polls until ctx is done, calling fn with every snapshot the server
// sends. Unchanged rooms answer 304 and are not passed on. Failed polls are
// retried with exponential backoff; an unknown room ends the loop.
func (p *Poller) Run(ctx context.Context, fn func(wire.RoomSnapshot)) error {
	b := newBackOff(p.opts)
	var etag string

	for {
		snap, tag, modified, err := p.client.Fetch(ctx, p.code, etag)

		var wait time.Duration
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrRoomNotFound):
			return err
		case err != nil:
			wait = nextDelay(b)
			p.opts.Logger.Warn("poll failed", "room", p.code, "error", err, "retry_in", wait)
		default:
			b.Reset()
			etag = tag
			if modified {
				fn(snap)
			}
			wait = p.opts.Interval
		}

		select {
		case <-ctx.Done():
			return nil
		case <-p.opts.Clock.After(wait):
		}
	}
}
