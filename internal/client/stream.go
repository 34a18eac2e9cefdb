package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/playperu/cuetimer/internal/wire"
)

// ErrStreamClosed is returned when the server ends a push stream, which it
// does when the room is evicted or the server shuts down.
var ErrStreamClosed = errors.New("stream closed by server")

// Stream reads the room's SSE channel and calls fn for every event until ctx
// is done or the connection ends.
func (c *Client) Stream(ctx context.Context, code string, fn func(wire.Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.roomURL("/api/timers/stream", code), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The shared client's timeout would cut a long-lived stream.
	hc := &http.Client{Transport: c.http.Transport}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("open stream %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("open stream %s: %w", code, readAPIError(resp))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Bytes()
		switch {
		case len(line) == 0:
			if data.Len() == 0 {
				continue
			}
			var ev wire.Event
			if err := json.Unmarshal(data.Bytes(), &ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			data.Reset()
			fn(ev)
		case line[0] == ':':
			// comment
		case bytes.HasPrefix(line, []byte("data:")):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(bytes.TrimPrefix(bytes.TrimPrefix(line, []byte("data:")), []byte(" ")))
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return ErrStreamClosed
}

// Follow keeps a stream open, reconnecting with exponential backoff when it
// drops. Every reconnect starts with a full state event, so fn never misses
// more than the time spent disconnected. An unknown room ends the loop.
func (c *Client) Follow(ctx context.Context, code string, opts Options, fn func(wire.Event)) error {
	opts = opts.withDefaults()
	b := newBackOff(opts)

	for {
		err := c.Stream(ctx, code, func(ev wire.Event) {
			if ev.Type == wire.EventConnected {
				b.Reset()
			}
			fn(ev)
		})
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrRoomNotFound):
			return err
		}

		wait := nextDelay(b)
		opts.Logger.Warn("stream dropped", "room", code, "error", err, "retry_in", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-opts.Clock.After(wait):
		}
	}
}
