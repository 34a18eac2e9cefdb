// Package client is the observer side of the timer protocol: it fetches and
// commands rooms over HTTP, follows them by polling or by the SSE stream,
// and computes what a display should show between updates.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/playperu/cuetimer/internal/wire"
)

// ErrRoomNotFound is returned when the server does not know the room.
var ErrRoomNotFound = errors.New("room not found")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrRoomNotFound && e.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. hc may be nil.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Create asks the server for a new room.
func (c *Client) Create(ctx context.Context) (wire.RoomSnapshot, error) {
	var resp wire.RoomCreated
	if err := c.post(ctx, "/api/rooms", wire.RoomRequest{Action: "create"}, &resp); err != nil {
		return wire.RoomSnapshot{}, fmt.Errorf("create room: %w", err)
	}
	return resp.State, nil
}

// Join returns the current snapshot of an existing room.
func (c *Client) Join(ctx context.Context, code string) (wire.RoomSnapshot, error) {
	var resp wire.RoomJoined
	if err := c.post(ctx, "/api/rooms", wire.RoomRequest{Action: "join", RoomCode: code}, &resp); err != nil {
		return wire.RoomSnapshot{}, fmt.Errorf("join room %s: %w", code, err)
	}
	return resp.State, nil
}

// Fetch polls a room. When etag still matches the server's version it
// returns modified=false and a zero snapshot.
func (c *Client) Fetch(ctx context.Context, code, etag string) (snap wire.RoomSnapshot, tag string, modified bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.roomURL("/api/timers", code), nil)
	if err != nil {
		return snap, "", false, fmt.Errorf("build request: %w", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return snap, "", false, fmt.Errorf("fetch room %s: %w", code, err)
	}
	defer resp.Body.Close()

	tag = resp.Header.Get("ETag")
	switch {
	case resp.StatusCode == http.StatusNotModified:
		return snap, tag, false, nil
	case resp.StatusCode != http.StatusOK:
		return snap, "", false, fmt.Errorf("fetch room %s: %w", code, readAPIError(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, "", false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, tag, true, nil
}

// Send submits a command. The server answers with the full room.
func (c *Client) Send(ctx context.Context, req wire.CommandRequest) (wire.RoomSnapshot, error) {
	var snap wire.RoomSnapshot
	if err := c.post(ctx, "/api/timers/command", req, &snap); err != nil {
		return snap, fmt.Errorf("command %s: %w", req.Name(), err)
	}
	return snap, nil
}

// Key sends a browser-style key name (Enter, ArrowUp, Digit5, ...) to the
// selected timer, or to timerID when it is not nil.
func (c *Client) Key(ctx context.Context, code, key string, timerID *int) (wire.RoomSnapshot, error) {
	value, err := json.Marshal(key)
	if err != nil {
		return wire.RoomSnapshot{}, err
	}
	return c.Send(ctx, wire.CommandRequest{
		Command:  "key",
		RoomCode: code,
		TimerID:  timerID,
		Value:    value,
	})
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) roomURL(path, code string) string {
	return c.baseURL + path + "?roomCode=" + url.QueryEscape(code)
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
