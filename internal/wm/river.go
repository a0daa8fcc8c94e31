package wm

import (
	"fmt"
	"os"
	"strings"
	"time"

	"nvg/internal/direction"
	"nvg/internal/procutil"
	"nvg/internal/wm/wayland"
)

const (
	ifaceSeat            = "wl_seat"
	ifaceToplevelManager = "zwlr_foreign_toplevel_manager_v1"
	ifaceRiverControl    = "zriver_control_v1"
)

// zwlr_foreign_toplevel_handle_v1 event opcodes this backend cares
// about.
const (
	toplevelEventAppID  uint16 = 1
	toplevelEventState  uint16 = 4
	toplevelEventDone   uint16 = 5
	toplevelEventClosed uint16 = 6
)

// zwlr_foreign_toplevel_manager_v1 event opcodes.
const (
	managerEventToplevel uint16 = 0
	managerEventFinished uint16 = 1
)

// zriver_control_v1 request opcodes.
const (
	controlOpAddArgument uint16 = 0
	controlOpRunCommand  uint16 = 1
)

// activatedState is the wl-array sentinel value zwlr-foreign-toplevel
// uses to mark a toplevel as focused (spec.md §4.4.4).
const activatedState uint32 = 2

// RiverBackend drives River over raw Wayland: bind the foreign-toplevel
// manager to answer FocusedPid, bind wl_seat + zriver_control_v1 to
// drive MoveFocus. Every call opens, uses and closes its own connection
// (spec.md §9's "short-lived Wayland state").
type RiverBackend struct {
	timeout time.Duration
}

// NewRiverBackend validates that the Wayland socket is resolvable.
func NewRiverBackend(cfg Config) (*RiverBackend, error) {
	if _, err := wayland.SocketPath(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	return &RiverBackend{timeout: cfg.Timeout}, nil
}

type registryGlobal struct {
	name    uint32
	version uint32
}

// connectRegistry dials the compositor, requests the registry and
// drains events up to the wl_display.sync barrier, collecting every
// global advertised along the way.
func connectRegistry(timeout time.Duration) (*wayland.Conn, map[string]registryGlobal, error) {
	conn, err := wayland.Connect(timeout)
	if err != nil {
		return nil, nil, err
	}

	registryID := conn.NewID()
	if err := conn.SendMessage(wayland.DisplayObjectId, wayland.OpDisplayGetRegistry,
		wayland.AppendUint32(nil, registryID)); err != nil {
		conn.Close()
		return nil, nil, err
	}

	globals := make(map[string]registryGlobal)
	err = roundtrip(conn, func(ev wayland.Event) error {
		if ev.ObjectId != registryID || ev.Opcode != wayland.EventRegistryGlobal {
			return nil
		}
		name, err := wayland.ReadUint32(ev.Args, 0)
		if err != nil {
			return nil // malformed event: ignore, per spec.md §4.4.4 error handling
		}
		iface, next, err := wayland.ReadString(ev.Args, 4)
		if err != nil {
			return nil
		}
		version, err := wayland.ReadUint32(ev.Args, next)
		if err != nil {
			return nil
		}
		globals[iface] = registryGlobal{name: name, version: version}
		return nil
	})
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, globals, nil
}

// bind issues wl_registry.bind for iface and returns the freshly
// allocated object id.
func bind(conn *wayland.Conn, registryID uint32, g registryGlobal, iface string) uint32 {
	id := conn.NewID()
	args := wayland.AppendUint32(nil, g.name)
	args = wayland.AppendString(args, iface)
	args = wayland.AppendUint32(args, g.version)
	args = wayland.AppendUint32(args, id)
	_ = conn.SendMessage(registryID, wayland.OpRegistryBind, args)
	return id
}

// roundtrip sends wl_display.sync and dispatches every event that
// arrives before the matching wl_callback.done, per spec.md §5's
// "drain until a specific wl_callback.done is observed" ordering rule.
// Any wl_display error event aborts the operation silently, per
// spec.md §4.4.4.
func roundtrip(conn *wayland.Conn, dispatch func(wayland.Event) error) error {
	callbackID := conn.NewID()
	if err := conn.SendMessage(wayland.DisplayObjectId, wayland.OpDisplaySync,
		wayland.AppendUint32(nil, callbackID)); err != nil {
		return err
	}

	for {
		ev, err := conn.NextEvent()
		if err != nil {
			return err
		}
		if ev.ObjectId == wayland.DisplayObjectId && ev.Opcode == wayland.EventDisplayError {
			return fmt.Errorf("%w: wl_display error event", wayland.ErrProtocol)
		}
		if ev.ObjectId == callbackID && ev.Opcode == wayland.EventCallbackDone {
			return nil
		}
		if err := dispatch(ev); err != nil {
			return err
		}
	}
}

type toplevelInfo struct {
	appID     string
	activated bool
	closed    bool
	done      bool
}

// FocusedPid binds the foreign-toplevel manager, collects every
// toplevel's app_id and activated state, then resolves the activated
// one to a pid by scanning /proc for a case-insensitive comm/argv0
// match — an approximate policy spec.md §9 documents rather than
// strengthens, since multiple processes may share an app_id.
func (r *RiverBackend) FocusedPid() int {
	conn, globals, err := connectRegistry(r.timeout)
	if err != nil {
		return 0
	}
	defer conn.Close()

	managerGlobal, ok := globals[ifaceToplevelManager]
	if !ok {
		return 0
	}
	// The registry object itself was allocated inside connectRegistry
	// but not returned; bind needs its id, which is always the first
	// id handed out (2), since get_registry is the first NewID call.
	registryID := uint32(2)
	managerID := bind(conn, registryID, managerGlobal, ifaceToplevelManager)

	toplevels := make(map[uint32]*toplevelInfo)
	err = roundtrip(conn, func(ev wayland.Event) error {
		switch {
		case ev.ObjectId == managerID && ev.Opcode == managerEventToplevel:
			handleID, err := wayland.ReadUint32(ev.Args, 0)
			if err == nil {
				toplevels[handleID] = &toplevelInfo{}
			}
		case ev.ObjectId == managerID && ev.Opcode == managerEventFinished:
			// manager torn down; nothing to record.
		default:
			handleTopLevelEvent(toplevels, ev)
		}
		return nil
	})
	if err != nil {
		return 0
	}

	var activeAppID string
	for _, t := range toplevels {
		if t.activated && !t.closed && t.appID != "" {
			activeAppID = t.appID
			break
		}
	}
	if activeAppID == "" {
		return 0
	}
	return findPidByAppID(activeAppID)
}

func handleTopLevelEvent(toplevels map[uint32]*toplevelInfo, ev wayland.Event) {
	t, ok := toplevels[ev.ObjectId]
	if !ok {
		return // unknown object id: ignore, per spec.md §4.4.4
	}
	switch ev.Opcode {
	case toplevelEventAppID:
		if s, _, err := wayland.ReadString(ev.Args, 0); err == nil {
			t.appID = s
		}
	case toplevelEventState:
		if arr, _, err := wayland.ReadArray(ev.Args, 0); err == nil {
			for i := 0; i+4 <= len(arr); i += 4 {
				v, _ := wayland.ReadUint32(arr, i)
				if v == activatedState {
					t.activated = true
				}
			}
		}
	case toplevelEventClosed:
		t.closed = true
	case toplevelEventDone:
		t.done = true
	}
}

// findPidByAppID scans /proc for the first process whose comm or argv0
// basename case-insensitively matches appID.
func findPidByAppID(appID string) int {
	want := strings.ToLower(appID)
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0
	}
	for _, e := range entries {
		pid := parsePidDirName(e.Name())
		if pid <= 0 {
			continue
		}
		comm := strings.ToLower(procutil.ReadComm(pid))
		argv0 := strings.ToLower(basename(procutil.ReadArgv0(pid)))
		if comm == want || argv0 == want {
			return pid
		}
	}
	return 0
}

func parsePidDirName(name string) int {
	n := 0
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

var riverDirName = map[direction.Direction]string{
	direction.Left:  "left",
	direction.Right: "right",
	direction.Up:    "up",
	direction.Down:  "down",
}

// MoveFocus binds wl_seat and zriver_control_v1, issues two
// add_argument calls ("focus-view" then the lowercase direction name)
// and a run_command, then roundtrips to ensure delivery, per spec.md
// §4.4.4.
func (r *RiverBackend) MoveFocus(dir direction.Direction) {
	conn, globals, err := connectRegistry(r.timeout)
	if err != nil {
		return
	}
	defer conn.Close()

	seatGlobal, hasSeat := globals[ifaceSeat]
	controlGlobal, hasControl := globals[ifaceRiverControl]
	if !hasSeat || !hasControl {
		return
	}
	registryID := uint32(2)
	seatID := bind(conn, registryID, seatGlobal, ifaceSeat)
	controlID := bind(conn, registryID, controlGlobal, ifaceRiverControl)

	_ = conn.SendMessage(controlID, controlOpAddArgument, wayland.AppendString(nil, "focus-view"))
	_ = conn.SendMessage(controlID, controlOpAddArgument, wayland.AppendString(nil, riverDirName[dir]))

	callbackID := conn.NewID()
	args := wayland.AppendUint32(nil, seatID)
	args = wayland.AppendUint32(args, callbackID)
	_ = conn.SendMessage(controlID, controlOpRunCommand, args)

	_ = roundtrip(conn, func(wayland.Event) error { return nil })
}

// Disconnect is a no-op: RiverBackend opens a fresh connection per call.
func (r *RiverBackend) Disconnect() {}
