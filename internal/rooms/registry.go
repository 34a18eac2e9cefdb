package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/playperu/cuetimer/internal/studiotimer"
)

const maxCodeAttempts = 32

var ErrCodeSpace = errors.New("no free room code")

// Publisher receives a snapshot after every accepted mutation and every
// change of a running timer's displayed second. Publish must not block.
type Publisher interface {
	Publish(snap Snapshot)
}

type Options struct {
	Clock         clockwork.Clock
	Logger        *slog.Logger
	Publisher     Publisher
	TimersPerRoom int
	Cadence       time.Duration

	// NewCode overrides room code generation; tests use it to force
	// collisions.
	NewCode func() (string, error)

	// OnEvict is called with the code of every room the janitor removes,
	// after the registry lock is released.
	OnEvict func(code string)
}

// Registry is the single authoritative owner of all rooms in the process.
// Each room is guarded by its own mutex, so commands for one room are
// strictly ordered while different rooms proceed independently.
type Registry struct {
	clock         clockwork.Clock
	logger        *slog.Logger
	publisher     Publisher
	timersPerRoom int
	newCode       func() (string, error)
	onEvict       func(code string)
	driver        *Driver

	mu    sync.RWMutex
	rooms map[string]*entry
}

type entry struct {
	mu     sync.Mutex
	room   Room
	shown  map[int]int
	closed bool
}

func NewRegistry(opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TimersPerRoom <= 0 {
		opts.TimersPerRoom = 2
	}
	if opts.Cadence <= 0 {
		opts.Cadence = 250 * time.Millisecond
	}
	if opts.NewCode == nil {
		opts.NewCode = RandomCode
	}

	r := &Registry{
		clock:         opts.Clock,
		logger:        opts.Logger,
		publisher:     opts.Publisher,
		timersPerRoom: opts.TimersPerRoom,
		newCode:       opts.NewCode,
		onEvict:       opts.OnEvict,
		rooms:         make(map[string]*entry),
	}
	r.driver = NewDriver(opts.Clock, opts.Cadence, opts.Logger, r.tick)
	return r
}

// Seed creates pinned rooms with well-known codes. Existing rooms are left
// untouched.
func (r *Registry) Seed(codes ...string) {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range codes {
		code = NormalizeCode(code)
		if _, ok := r.rooms[code]; ok {
			continue
		}
		room := newRoom(code, r.timersPerRoom, now)
		room.Pinned = true
		r.rooms[code] = &entry{room: room, shown: make(map[int]int)}
		r.logger.Info("default room seeded", "room", code)
	}
}

// Create allocates a room under a fresh code, retrying on collision.
func (r *Registry) Create() (Snapshot, error) {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for range maxCodeAttempts {
		code, err := r.newCode()
		if err != nil {
			return Snapshot{}, fmt.Errorf("generating room code: %w", err)
		}
		if _, taken := r.rooms[code]; taken {
			continue
		}
		room := newRoom(code, r.timersPerRoom, now)
		r.rooms[code] = &entry{room: room, shown: make(map[int]int)}
		r.logger.Info("room created", "room", code)
		return room.snapshot(now), nil
	}
	return Snapshot{}, ErrCodeSpace
}

// Get returns the current room snapshot. Count-downs whose deadline passed
// are finished first, so readers never observe a stale running timer.
func (r *Registry) Get(code string) (Snapshot, error) {
	e, err := r.lookup(code)
	if err != nil {
		return Snapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Snapshot{}, ErrNotFound
	}

	now := r.clock.Now()
	r.reconcile(e, now)
	e.room.LastActivityAt = now
	return e.room.snapshot(now), nil
}

// Apply is the only mutator of room state. The next room value is computed
// in full before it replaces the current one.
func (r *Registry) Apply(code string, cmd Command) (Snapshot, error) {
	e, err := r.lookup(code)
	if err != nil {
		return Snapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Snapshot{}, ErrNotFound
	}

	now := r.clock.Now()
	r.reconcile(e, now)

	next, err := applyCommand(e.room, cmd, now)
	if err != nil {
		return Snapshot{}, err
	}
	e.room.LastActivityAt = now

	if !changed(e.room, next) {
		r.logger.Debug("command absorbed", "room", e.room.Code, "command", cmd.Name())
		return e.room.snapshot(now), nil
	}
	next.LastActivityAt = now
	r.commit(e, next, now)

	r.logger.Debug("command applied",
		"room", e.room.Code,
		"command", cmd.Name(),
		"version", e.room.Version,
	)
	return e.room.snapshot(now), nil
}

// LabelChanged republishes every room with a timer showing label id, so
// observers pick up renamed or deleted label text. Each affected room gets a
// new version; activity timestamps are left alone. It returns the affected
// codes in sorted order.
func (r *Registry) LabelChanged(id string) []string {
	if id == "" {
		return nil
	}

	r.mu.RLock()
	entries := make([]*entry, 0, len(r.rooms))
	for _, e := range r.rooms {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	now := r.clock.Now()
	var codes []string
	for _, e := range entries {
		e.mu.Lock()
		if !e.closed && e.room.usesLabel(id) {
			r.reconcile(e, now)
			r.commit(e, e.room.clone(), now)
			codes = append(codes, e.room.Code)
		}
		e.mu.Unlock()
	}
	slices.Sort(codes)
	return codes
}

// Codes lists live room codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.rooms))
	for code := range r.rooms {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// EvictIdle removes unpinned rooms with no activity for at least ttl and
// returns their codes.
func (r *Registry) EvictIdle(ttl time.Duration) []string {
	evicted := r.evict(ttl)
	if r.onEvict != nil {
		for _, code := range evicted {
			r.onEvict(code)
		}
	}
	return evicted
}

func (r *Registry) evict(ttl time.Duration) []string {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for code, e := range r.rooms {
		e.mu.Lock()
		if !e.room.Pinned && now.Sub(e.room.LastActivityAt) >= ttl {
			e.closed = true
			delete(r.rooms, code)
			r.driver.StopRoom(code)
			evicted = append(evicted, code)
		}
		e.mu.Unlock()
	}
	slices.Sort(evicted)
	return evicted
}

// RunJanitor evicts idle rooms every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval, ttl time.Duration) error {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			for _, code := range r.EvictIdle(ttl) {
				r.logger.Info("idle room evicted", "room", code, "ttl", ttl)
			}
		}
	}
}

// Close stops every countdown driver.
func (r *Registry) Close() {
	r.driver.Close()
}

func (r *Registry) lookup(code string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.rooms[NormalizeCode(code)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// tick is the driver callback for one running timer.
func (r *Registry) tick(code string, timerID int) {
	e, err := r.lookup(code)
	if err != nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || timerID >= len(e.room.Timers) {
		return
	}

	t := e.room.Timers[timerID]
	if t.Phase != studiotimer.PhaseRunning {
		return
	}

	now := r.clock.Now()
	next := studiotimer.Apply(t, studiotimer.Tick(), now)
	if next != t {
		room := e.room.clone()
		room.Timers[timerID] = next
		r.commit(e, room, now)
		r.logger.Debug("timer finished", "room", code, "timer", timerID, "version", e.room.Version)
		return
	}

	if studiotimer.DisplaySeconds(t, now) != e.shown[timerID] {
		r.publish(e, now)
	}
}

// reconcile must be called with e.mu held.
func (r *Registry) reconcile(e *entry, now time.Time) {
	next := reconcile(e.room, now)
	if changed(e.room, next) {
		r.commit(e, next, now)
	}
}

// commit installs next as the room state, bumps the version, keeps drivers
// in step with phase changes and publishes. Must be called with e.mu held.
func (r *Registry) commit(e *entry, next Room, now time.Time) {
	before := e.room
	next.Version = before.Version + 1
	e.room = next

	for i := range next.Timers {
		was := i < len(before.Timers) && before.Timers[i].Phase == studiotimer.PhaseRunning
		is := next.Timers[i].Phase == studiotimer.PhaseRunning
		switch {
		case is && (!was || before.Timers[i].StartedAt != next.Timers[i].StartedAt):
			r.driver.Start(next.Code, i)
		case was && !is:
			r.driver.Stop(next.Code, i)
		}
	}

	r.publish(e, now)
}

func (r *Registry) publish(e *entry, now time.Time) {
	snap := e.room.snapshot(now)
	for i := range snap.Timers {
		e.shown[i] = snap.Display(i)
	}
	if r.publisher != nil {
		r.publisher.Publish(snap)
	}
}
