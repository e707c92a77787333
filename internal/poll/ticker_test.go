package poll

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func firstTick(t *testing.T, cmd tea.Cmd) TickMsg {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a scheduling command")
	}
	msg, ok := cmd().(TickMsg)
	if !ok {
		t.Fatalf("expected TickMsg, got %T", msg)
	}
	return msg
}

func TestTickerInvokesHandler(t *testing.T) {
	calls := 0
	tk := New(func() tea.Cmd {
		calls++
		return nil
	})
	msg := firstTick(t, tk.Start(time.Millisecond))

	cmd, handled := tk.Update(msg)
	if !handled {
		t.Fatalf("expected tick to be handled")
	}
	if cmd == nil {
		t.Fatalf("expected next tick to be scheduled")
	}
	if calls != 1 {
		t.Fatalf("expected 1 handler call, got %d", calls)
	}
}

func TestTickerStopDropsInFlightTick(t *testing.T) {
	calls := 0
	tk := New(func() tea.Cmd {
		calls++
		return nil
	})
	msg := firstTick(t, tk.Start(time.Millisecond))
	tk.Stop()

	cmd, handled := tk.Update(msg)
	if !handled {
		t.Fatalf("expected stale tick to be consumed")
	}
	if cmd != nil {
		t.Fatalf("expected no further scheduling after stop")
	}
	if calls != 0 {
		t.Fatalf("handler must not run after stop, got %d calls", calls)
	}
	if tk.Running() {
		t.Fatalf("expected ticker to be stopped")
	}
}

func TestTickerRestartCancelsPreviousInstance(t *testing.T) {
	calls := 0
	tk := New(func() tea.Cmd {
		calls++
		return nil
	})
	old := firstTick(t, tk.Start(time.Millisecond))
	current := firstTick(t, tk.Reschedule(2*time.Millisecond))

	if _, handled := tk.Update(old); !handled {
		t.Fatalf("expected old tick to be consumed")
	}
	if calls != 0 {
		t.Fatalf("old instance must not fire, got %d calls", calls)
	}
	if _, handled := tk.Update(current); !handled {
		t.Fatalf("expected current tick to be handled")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call from current instance, got %d", calls)
	}
	if tk.Period() != 2*time.Millisecond {
		t.Fatalf("expected period 2ms, got %v", tk.Period())
	}
}

func TestTickerSetHandlerKeepsSchedule(t *testing.T) {
	var got []string
	tk := New(func() tea.Cmd {
		got = append(got, "first")
		return nil
	})
	msg := firstTick(t, tk.Start(time.Millisecond))
	tk.SetHandler(func() tea.Cmd {
		got = append(got, "second")
		return nil
	})

	if _, handled := tk.Update(msg); !handled {
		t.Fatalf("tick scheduled before the swap must still fire")
	}
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("expected latest handler to run, got %v", got)
	}
}

func TestTickerZeroPeriodSuspends(t *testing.T) {
	tk := New(nil)
	if cmd := tk.Start(0); cmd != nil {
		t.Fatalf("expected no command for zero period")
	}
	if tk.Running() {
		t.Fatalf("expected suspended ticker")
	}
}

func TestTickerIgnoresOtherTickers(t *testing.T) {
	a := New(nil)
	b := New(nil)
	msg := firstTick(t, a.Start(time.Millisecond))
	if _, handled := b.Update(msg); handled {
		t.Fatalf("ticker must ignore ticks addressed to another ticker")
	}
	if _, handled := a.Update(struct{}{}); handled {
		t.Fatalf("ticker must ignore unrelated messages")
	}
}
