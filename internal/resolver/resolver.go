// Package resolver implements the focus-resolution state machine: the
// decision core that fetches the WM-focused process, tries a stack of
// focus-aware hooks innermost outward, and falls back to a WM-level
// move when no hook can act (spec.md §4.1).
package resolver

import (
	"time"

	"nvg/internal/debuglog"
	"nvg/internal/detect"
	"nvg/internal/direction"
	"nvg/internal/hook"
)

// WindowManager is the capability navigate needs from a backend. It is
// declared here (rather than importing internal/wm) so this package
// can be exercised against mocks without pulling in every wm protocol
// client — the interface itself is spec.md §3's WindowManager
// capability, restated for this package's own tests.
type WindowManager interface {
	FocusedPid() int
	MoveFocus(dir direction.Direction)
	Disconnect()
}

// DetectAll matches internal/detect.All's signature; passed in as a
// parameter (spec.md §4.1's navigate(wm, dir, timeout_ms,
// enabled_hooks, detectAll) contract) so tests can substitute a
// deterministic detector.
type DetectAll func(root int, hooks []hook.Hook) []detect.Detected

// Navigate performs exactly one focus action and returns, per spec.md
// §4.1's algorithm. It never panics or returns an error: every IPC
// failure downstream collapses to "absent" or a no-op, and the next
// layer takes over.
func Navigate(wm WindowManager, dir direction.Direction, timeout time.Duration, hooks []hook.Hook, detectAll DetectAll) {
	pid := wm.FocusedPid()
	if pid <= 0 {
		wmMoveAndLand(wm, dir, timeout, hooks, detectAll)
		return
	}

	detected := detectAll(pid, hooks)
	if len(detected) == 0 {
		wmMoveAndLand(wm, dir, timeout, hooks, detectAll)
		return
	}

	for i := len(detected) - 1; i >= 0; i-- {
		d := detected[i]
		answer := d.Hook.CanMove(d.Pid, dir, timeout)
		debuglog.Debug("hook can_move", "hook", d.Hook.Name, "pid", d.Pid, "answer", answer.String())
		if answer == hook.Yes {
			d.Hook.MoveFocus(d.Pid, dir, timeout)
			return
		}
		// No or Unknown both bubble up to the next-outer hook.
	}

	wmMoveAndLand(wm, dir, timeout, hooks, detectAll)
}

// wmMoveAndLand is step 5 of spec.md §4.1: drive the WM one step, then
// steer to the entry-side edge of whatever hook stack is found at the
// new location.
func wmMoveAndLand(wm WindowManager, dir direction.Direction, timeout time.Duration, hooks []hook.Hook, detectAll DetectAll) {
	wm.MoveFocus(dir)

	pid := wm.FocusedPid()
	if pid <= 0 {
		return
	}

	detected := detectAll(pid, hooks)
	if len(detected) == 0 {
		return
	}

	inner := detected[len(detected)-1]
	inner.Hook.MoveToEdge(inner.Pid, dir.Opposite(), timeout)
}
