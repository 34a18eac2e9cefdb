package studiotimer

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func applyAll(tm Timer, now time.Time, cmds ...Command) Timer {
	for _, c := range cmds {
		tm = Apply(tm, c, now)
	}
	return tm
}

func TestDigitEntry(t *testing.T) {
	tm := applyAll(New(0), t0, Digit(1), Digit(2), Backspace(), Digit(3))
	if tm.Input != "13" {
		t.Fatalf("input = %q, want %q", tm.Input, "13")
	}

	tm = applyAll(New(0), t0, Digit(1), Digit(2), Digit(3), Digit(4), Digit(5), Digit(6), Digit(7))
	if tm.Input != "123456" {
		t.Errorf("input = %q, want 6 digits kept", tm.Input)
	}

	if got := Apply(New(0), Digit(10), t0); got != New(0) {
		t.Errorf("out of range digit changed state: %+v", got)
	}
	if got := Apply(New(0), Backspace(), t0); got != New(0) {
		t.Errorf("backspace on empty input changed state: %+v", got)
	}
}

func TestSelectDirectionOnlyDuringInput(t *testing.T) {
	tm := Apply(New(0), SelectDirection(DirectionUp), t0)
	if tm.PendingDirection != DirectionUp {
		t.Fatalf("pending = %q, want up", tm.PendingDirection)
	}

	running := applyAll(New(0), t0, Digit(5), Commit())
	if got := Apply(running, SelectDirection(DirectionUp), t0); got != running {
		t.Errorf("selectDirection on running timer changed state")
	}
}

func TestCommitFromInput(t *testing.T) {
	tests := []struct {
		name    string
		cmds    []Command
		wantDir Direction
		wantSec int
	}{
		{"defaults to down", []Command{Digit(1), Digit(3), Digit(0)}, DirectionDown, 90},
		{"pending up", []Command{Digit(5), SelectDirection(DirectionUp)}, DirectionUp, 5},
		{"zero forces up", []Command{Digit(0), SelectDirection(DirectionDown)}, DirectionUp, 0},
		{"empty forces up", []Command{SelectDirection(DirectionDown)}, DirectionUp, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := applyAll(New(0), t0, append(tt.cmds, Commit())...)
			if tm.Phase != PhaseRunning {
				t.Fatalf("phase = %q, want running", tm.Phase)
			}
			if tm.Direction != tt.wantDir {
				t.Errorf("direction = %q, want %q", tm.Direction, tt.wantDir)
			}
			if tm.BaseSeconds != tt.wantSec {
				t.Errorf("base = %d, want %d", tm.BaseSeconds, tt.wantSec)
			}
			if tm.Input != "" || tm.PendingDirection != DirectionNone {
				t.Errorf("input fields not cleared: %+v", tm)
			}
			if !tm.StartedAt.Equal(t0) {
				t.Errorf("startedAt = %v, want %v", tm.StartedAt, t0)
			}
		})
	}
}

func TestCommitWithClientInput(t *testing.T) {
	tm := Apply(New(0), CommitWith("0130", DirectionUp), t0)
	if tm.BaseSeconds != 90 || tm.Direction != DirectionUp {
		t.Errorf("got base=%d dir=%q, want 90 up", tm.BaseSeconds, tm.Direction)
	}

	tm = applyAll(New(0), t0, Digit(4), Digit(5), CommitMode(DirectionUp))
	if tm.BaseSeconds != 45 || tm.Direction != DirectionUp {
		t.Errorf("mode override: got base=%d dir=%q, want 45 up", tm.BaseSeconds, tm.Direction)
	}

	paused := applyAll(New(0), t0, Digit(9), Commit(), Pause())
	resumed := Apply(paused, CommitWith("5", DirectionUp), t0.Add(time.Second))
	if resumed.BaseSeconds != 9 || resumed.Direction != DirectionDown {
		t.Errorf("overrides applied outside input phase: %+v", resumed)
	}
}

func TestCommitWhileRunningIsNoOp(t *testing.T) {
	running := applyAll(New(0), t0, Digit(5), Commit())
	if got := Apply(running, Commit(), t0.Add(2*time.Second)); got != running {
		t.Errorf("commit on running timer changed state")
	}
}

func TestPauseResumeAccounting(t *testing.T) {
	tm := applyAll(New(0), t0, Digit(1), Digit(4), Digit(0), Commit()) // 00:01:40
	if tm.BaseSeconds != 100 {
		t.Fatalf("base = %d, want 100", tm.BaseSeconds)
	}

	tm = Apply(tm, Pause(), t0.Add(30*time.Second))
	if tm.Phase != PhasePaused {
		t.Fatalf("phase = %q, want paused", tm.Phase)
	}

	resumeAt := t0.Add(530 * time.Second)
	tm = Apply(tm, Commit(), resumeAt)
	if got := DisplaySeconds(tm, resumeAt.Add(10*time.Second)); got != 60 {
		t.Errorf("display = %d, want 60", got)
	}
}

func TestPauseNotRunningIsNoOp(t *testing.T) {
	for _, tm := range []Timer{New(0), finish(New(0))} {
		if got := Apply(tm, Pause(), t0); got != tm {
			t.Errorf("pause on %q changed state", tm.Phase)
		}
	}
}

func TestPauseAfterDeadlineFinishes(t *testing.T) {
	tm := applyAll(New(0), t0, Digit(5), Commit())
	tm = Apply(tm, Pause(), t0.Add(6*time.Second))
	if tm.Phase != PhaseFinished {
		t.Errorf("phase = %q, want finished", tm.Phase)
	}
}

func TestToggle(t *testing.T) {
	tm := applyAll(New(0), t0, Digit(9), Toggle())
	if tm.Phase != PhaseRunning {
		t.Fatalf("toggle from input: phase = %q", tm.Phase)
	}
	tm = Apply(tm, Toggle(), t0.Add(time.Second))
	if tm.Phase != PhasePaused {
		t.Fatalf("toggle from running: phase = %q", tm.Phase)
	}
	tm = Apply(tm, Toggle(), t0.Add(2*time.Second))
	if tm.Phase != PhaseRunning {
		t.Fatalf("toggle from paused: phase = %q", tm.Phase)
	}
}

func TestFinishedRestartsAsCountUp(t *testing.T) {
	tm := Timer{ID: 1, Phase: PhaseFinished, LabelID: "3"}
	tm = Apply(tm, Commit(), t0)
	want := Timer{ID: 1, Phase: PhaseRunning, Direction: DirectionUp, StartedAt: t0, LabelID: "3"}
	if tm != want {
		t.Errorf("got %+v, want %+v", tm, want)
	}
	if got := DisplaySeconds(tm, t0.Add(42*time.Second)); got != 42 {
		t.Errorf("display = %d, want 42", got)
	}
}

func TestDigitAbortsRun(t *testing.T) {
	for _, start := range []Timer{
		applyAll(Timer{ID: 0, Phase: PhaseInput, LabelID: "4"}, t0, Digit(5), Commit()),
		applyAll(Timer{ID: 0, Phase: PhaseInput, LabelID: "4"}, t0, Digit(5), Commit(), Pause()),
		{ID: 0, Phase: PhaseFinished, LabelID: "4"},
	} {
		t.Run(string(start.Phase), func(t *testing.T) {
			got := Apply(start, Digit(7), t0.Add(time.Second))
			want := Timer{ID: 0, Phase: PhaseInput, Input: "7", LabelID: "4"}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestSetInput(t *testing.T) {
	tm := Apply(New(0), SetInput("12:34:567"), t0)
	if tm.Input != "123456" {
		t.Errorf("input = %q, want %q", tm.Input, "123456")
	}

	fin := Timer{ID: 0, Phase: PhaseFinished, LabelID: "2"}
	tm = Apply(fin, SetInput("30"), t0)
	if tm.Phase != PhaseInput || tm.Input != "30" || tm.LabelID != "2" {
		t.Errorf("setInput from finished: %+v", tm)
	}

	running := applyAll(New(0), t0, Digit(5), Commit())
	if got := Apply(running, SetInput("9"), t0); got != running {
		t.Errorf("setInput on running timer changed state")
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	running := applyAll(Timer{ID: 0, Phase: PhaseInput, LabelID: "6"}, t0, Digit(5), Commit())
	once := Apply(running, Finish(), t0)
	twice := Apply(once, Finish(), t0.Add(time.Hour))
	if once != twice {
		t.Errorf("second finish changed state: %+v -> %+v", once, twice)
	}
	if once.Phase != PhaseFinished || once.LabelID != "6" {
		t.Errorf("finish: %+v", once)
	}
	if got := Apply(New(0), Finish(), t0); got != New(0) {
		t.Errorf("finish on input timer changed state")
	}
}

func TestTickFinishesCountdown(t *testing.T) {
	tm := applyAll(New(0), t0, Digit(3), Commit())

	if got := Apply(tm, Tick(), t0.Add(2900*time.Millisecond)); got != tm {
		t.Errorf("tick before deadline changed state")
	}

	got := Apply(tm, Tick(), t0.Add(3*time.Second))
	if got.Phase != PhaseFinished {
		t.Fatalf("phase = %q, want finished", got.Phase)
	}
	if d := DisplaySeconds(got, t0.Add(time.Hour)); d != 0 {
		t.Errorf("display = %d, want 0", d)
	}

	up := applyAll(New(0), t0, Digit(3), SelectDirection(DirectionUp), Commit())
	if got := Apply(up, Tick(), t0.Add(time.Hour)); got != up {
		t.Errorf("tick finished a count-up timer")
	}
}

func TestLabelPreservedAcrossCommands(t *testing.T) {
	paused := applyAll(Timer{ID: 0, Phase: PhaseInput, LabelID: "7"}, t0, Digit(9), Commit(), Pause())
	starts := []Timer{
		{ID: 0, Phase: PhaseInput, Input: "12", LabelID: "7"},
		applyAll(Timer{ID: 0, Phase: PhaseInput, LabelID: "7"}, t0, Digit(9), Commit()),
		paused,
		{ID: 0, Phase: PhaseFinished, LabelID: "7"},
	}
	cmds := []Command{
		Digit(4), Backspace(), SelectDirection(DirectionUp), Commit(), Pause(), Toggle(),
		Reset(), SetInput("5"), Tick(), Finish(), CommitWith("1", DirectionDown),
	}

	for _, start := range starts {
		for _, c := range cmds {
			got := Apply(start, c, t0.Add(time.Hour))
			if got.LabelID != "7" {
				t.Errorf("%s on %s: labelId = %q, want %q", c.Kind, start.Phase, got.LabelID, "7")
			}
		}
	}

	if got := Apply(paused, SetLabel("2"), t0); got.LabelID != "2" || got.Phase != PhasePaused {
		t.Errorf("setLabel: %+v", got)
	}
}

func TestResetFromAnyPhase(t *testing.T) {
	running := applyAll(Timer{ID: 1, Phase: PhaseInput, LabelID: "5"}, t0, Digit(5), SelectDirection(DirectionUp), Commit())
	got := Apply(running, Reset(), t0.Add(time.Minute))
	want := Timer{ID: 1, Phase: PhaseInput, LabelID: "5"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
