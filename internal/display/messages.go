package display

import "github.com/playperu/cuetimer/internal/wire"

// EventMsg wraps one push-channel event.
type EventMsg struct {
	Event wire.Event
}

// SnapshotMsg carries a snapshot from the poller.
type SnapshotMsg struct {
	Snapshot wire.RoomSnapshot
}

// FollowEndedMsg is sent when the stream or poller stops for good.
type FollowEndedMsg struct {
	Err error
}

// KeySentMsg carries the server's answer to a forwarded key.
type KeySentMsg struct {
	Key      string
	Snapshot wire.RoomSnapshot
	Err      error
}

// FrameMsg redraws running timers.
type FrameMsg struct{}

// ClearErrorMsg clears a transient error after a timeout.
type ClearErrorMsg struct{}
