package rooms

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type driverKey struct {
	code  string
	timer int
}

// Driver runs at most one periodic callback per running timer. The callback
// only triggers recomputation; elapsed time always comes from the timer's
// stored wall-clock fields.
type Driver struct {
	clock   clockwork.Clock
	cadence time.Duration
	onTick  func(code string, timerID int)
	logger  *slog.Logger

	mu     sync.Mutex
	active map[driverKey]chan struct{}
	wg     sync.WaitGroup
}

func NewDriver(clock clockwork.Clock, cadence time.Duration, logger *slog.Logger, onTick func(code string, timerID int)) *Driver {
	return &Driver{
		clock:   clock,
		cadence: cadence,
		onTick:  onTick,
		logger:  logger,
		active:  make(map[driverKey]chan struct{}),
	}
}

// Start begins ticking for a timer, replacing any callback already running
// for it.
func (d *Driver) Start(code string, timerID int) {
	key := driverKey{code, timerID}

	d.mu.Lock()
	if stop, ok := d.active[key]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	d.active[key] = stop
	ticker := d.clock.NewTicker(d.cadence)
	d.wg.Add(1)
	d.mu.Unlock()

	d.logger.Debug("driver started", "room", code, "timer", timerID)
	go d.run(key, ticker, stop)
}

func (d *Driver) run(key driverKey, ticker clockwork.Ticker, stop chan struct{}) {
	defer d.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			select {
			case <-stop:
				return
			default:
			}
			d.onTick(key.code, key.timer)
		}
	}
}

// Stop cancels the callback for a timer. It does not wait for an in-flight
// callback to return, so it is safe to call while holding a room lock.
func (d *Driver) Stop(code string, timerID int) {
	key := driverKey{code, timerID}

	d.mu.Lock()
	stop, ok := d.active[key]
	if ok {
		close(stop)
		delete(d.active, key)
	}
	d.mu.Unlock()

	if ok {
		d.logger.Debug("driver stopped", "room", code, "timer", timerID)
	}
}

// StopRoom cancels every callback belonging to a room.
func (d *Driver) StopRoom(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, stop := range d.active {
		if key.code == code {
			close(stop)
			delete(d.active, key)
		}
	}
}

// Running reports whether a callback is registered for the timer.
func (d *Driver) Running(code string, timerID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.active[driverKey{code, timerID}]
	return ok
}

// Active returns the number of registered callbacks.
func (d *Driver) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.active)
}

// Close cancels all callbacks and waits for their goroutines to exit.
func (d *Driver) Close() {
	d.mu.Lock()
	for key, stop := range d.active {
		close(stop)
		delete(d.active, key)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
