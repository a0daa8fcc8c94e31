// Package wm implements the five window-manager protocol clients nvg
// drives — sway/i3, Hyprland, Niri, River and dwm — behind one uniform
// WindowManager interface, plus the environment-based backend selector
// that picks which one to use for a given invocation.
package wm

import (
	"errors"
	"time"

	"nvg/internal/direction"
)

// ErrNoWmDetected is spec.md §7's front-door failure: the selector found
// no environment hint for any supported window manager.
var ErrNoWmDetected = errors.New("wm: no window manager detected")

// ErrConnectFailed is spec.md §7's other front-door failure: the chosen
// backend could not open its control socket.
var ErrConnectFailed = errors.New("wm: connect failed")

// Backend enumerates the five supported window managers. Sway and i3
// share one implementation (SwayBackend) since their IPC is identical.
type Backend int

const (
	Sway Backend = iota
	Hyprland
	Niri
	River
	Dwm
)

func (b Backend) String() string {
	switch b {
	case Sway:
		return "sway"
	case Hyprland:
		return "hyprland"
	case Niri:
		return "niri"
	case River:
		return "river"
	case Dwm:
		return "dwm"
	default:
		return "unknown"
	}
}

// ParseBackend maps an explicit --wm name to a Backend, per spec.md §4.5
// ("i3" maps onto the sway backend, since the protocol is identical).
func ParseBackend(name string) (Backend, error) {
	switch name {
	case "sway", "i3":
		return Sway, nil
	case "hyprland":
		return Hyprland, nil
	case "niri":
		return Niri, nil
	case "river":
		return River, nil
	case "dwm":
		return Dwm, nil
	default:
		return 0, errors.New("wm: unknown backend name " + name)
	}
}

// WindowManager is the single capability every backend exposes to the
// focus resolver: fetch the focused process id, move focus one step, and
// disconnect. Exactly one concrete implementation exists per invocation.
type WindowManager interface {
	// FocusedPid returns the pid owning the currently focused window, or
	// 0 if none is focused or the query failed — both collapse to
	// "absent" for the resolver (spec.md §7).
	FocusedPid() int
	// MoveFocus asks the WM to move focus one step in dir. Failure is
	// swallowed; it is a best-effort operation from the resolver's point
	// of view.
	MoveFocus(dir direction.Direction)
	// Disconnect releases the backend's connection. Safe to call once,
	// at the end of a single invocation's lifetime.
	Disconnect()
}

// Config carries the tunables every backend constructor needs.
type Config struct {
	Timeout time.Duration
}
