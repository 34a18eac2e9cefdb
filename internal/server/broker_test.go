package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/studiotimer"
	"github.com/playperu/cuetimer/internal/wire"
)

type noLabels struct{}

func (noLabels) Text(string) string { return "" }

func testBroker() *Broker {
	return NewBroker(noLabels{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func snapshot(code string, version uint64) rooms.Snapshot {
	return rooms.Snapshot{
		Code:    code,
		Timers:  []studiotimer.Timer{studiotimer.New(0), studiotimer.New(1)},
		Version: version,
		At:      t0,
	}
}

func TestBrokerFanOutIsRoomScoped(t *testing.T) {
	b := testBroker()
	a1, a2 := b.Subscribe("AAAAAA"), b.Subscribe("AAAAAA")
	other := b.Subscribe("BBBBBB")
	defer b.Unsubscribe(a1)
	defer b.Unsubscribe(a2)
	defer b.Unsubscribe(other)

	if a1.ID == a2.ID {
		t.Fatal("subscribers share an id")
	}

	b.Publish(snapshot("AAAAAA", 3))

	d1, d2 := <-a1.C, <-a2.C
	if string(d1) != string(d2) {
		t.Errorf("payloads differ:\n%s\n%s", d1, d2)
	}
	var ev wire.Event
	if err := json.Unmarshal(d1, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != wire.EventUpdate || ev.Version != 3 {
		t.Errorf("event = %+v", ev)
	}

	select {
	case d := <-other.C:
		t.Errorf("other room received %s", d)
	default:
	}
}

func TestBrokerPrunesSlowSubscriber(t *testing.T) {
	b := testBroker()
	slow := b.Subscribe("AAAAAA")
	fast := b.Subscribe("AAAAAA")
	defer b.Unsubscribe(fast)

	for v := range subscriberBuffer + 1 {
		b.Publish(snapshot("AAAAAA", uint64(v)))
		<-fast.C
	}

	if n := b.Subscribers("AAAAAA"); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}
	for range subscriberBuffer {
		<-slow.C
	}
	if _, ok := <-slow.C; ok {
		t.Error("slow subscriber channel still open")
	}

	// Unsubscribing after a prune must not close twice.
	b.Unsubscribe(slow)
}

func TestBrokerCloseRoom(t *testing.T) {
	b := testBroker()
	sub := b.Subscribe("AAAAAA")

	b.CloseRoom("AAAAAA")
	if _, ok := <-sub.C; ok {
		t.Error("channel open after CloseRoom")
	}
	if n := b.Subscribers("AAAAAA"); n != 0 {
		t.Errorf("subscribers = %d", n)
	}
	b.Unsubscribe(sub)
	b.Publish(snapshot("AAAAAA", 1))
}
