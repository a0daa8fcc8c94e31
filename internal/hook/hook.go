// Package hook implements the focus-aware application adapters nvg
// probes before ever touching the window manager: neovim, tmux,
// vscode, kitty, wezterm and ghostty. Each hook exposes the same four
// operations (detect, can_move, move_focus, move_to_edge) so the
// resolver can drive any of them without knowing which one it holds
// (spec.md §4.3).
package hook

import (
	"time"

	"nvg/internal/direction"
)

// TriState is can_move's three-valued answer: Yes (a neighbour
// exists), No (at an edge), Unknown (error, timeout, or not
// implemented). No and Unknown both bubble up in the resolver but are
// logged differently (spec.md §9).
type TriState int

const (
	Unknown TriState = iota
	Yes
	No
)

func (t TriState) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Probe is a hook's detect function: given a candidate process's pid,
// comm, exe path and argv0, report whether it matches this hook. A
// zero pid means no match.
type Probe func(pid int, comm, exe, argv0 string) int

// Hook is the immutable per-application descriptor spec.md §3
// describes. All four operations are safe to call concurrently with
// no shared state; every implementation opens its own IPC per call.
type Hook struct {
	Name       string
	Detect     Probe
	CanMove    func(pid int, dir direction.Direction, timeout time.Duration) TriState
	MoveFocus  func(pid int, dir direction.Direction, timeout time.Duration)
	MoveToEdge func(pid int, dir direction.Direction, timeout time.Duration)
}

// moveToEdgeCap bounds the repeat-move_focus loop hooks without a
// native "go to edge" primitive use (spec.md §4.3.4/§4.3.5).
const moveToEdgeCap = 50

// All returns every hook in registration order, matching spec.md
// §4.2's "apply each enabled hook's detect probe in registration
// order" requirement.
func All() []Hook {
	return []Hook{
		Nvim(),
		Tmux(),
		VSCode(),
		Kitty(),
		WezTerm(),
		Ghostty(),
	}
}

// ByNames filters All() down to the hooks named in names, in All()'s
// registration order (not the order names were given). An unknown name
// is the CLI layer's concern (spec.md §6 usage error), not this
// package's — ByNames simply ignores names it doesn't recognize.
func ByNames(names []string) []Hook {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Hook
	for _, h := range All() {
		if want[h.Name] {
			out = append(out, h)
		}
	}
	return out
}
