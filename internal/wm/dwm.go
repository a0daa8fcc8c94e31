package wm

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"nvg/internal/direction"
	"nvg/internal/wm/x11proto"
)

const defaultDwmFifo = "/tmp/dwm.fifo"

// DwmBackend drives dwm through the dwmfifo patch for moves and raw X11
// (spec.md §4.4.5) for focused-pid queries — dwm's IPC surface has no
// query capability of its own.
type DwmBackend struct {
	fifoPath string
	display  x11proto.DisplayAddr
	timeout  time.Duration
}

// NewDwmBackend resolves $DWM_FIFO (default /tmp/dwm.fifo) and parses
// $DISPLAY for the X11 query path.
func NewDwmBackend(cfg Config) (*DwmBackend, error) {
	fifo := os.Getenv("DWM_FIFO")
	if fifo == "" {
		fifo = defaultDwmFifo
	}

	disp, err := x11proto.ParseDisplay(os.Getenv("DISPLAY"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	return &DwmBackend{fifoPath: fifo, display: disp, timeout: cfg.Timeout}, nil
}

// FocusedPid opens a fresh raw X11 connection and resolves
// _NET_ACTIVE_WINDOW -> _NET_WM_PID, per spec.md §4.4.5.
func (d *DwmBackend) FocusedPid() int {
	client, err := x11proto.Connect(d.display, d.timeout)
	if err != nil {
		return 0
	}
	defer client.Close()

	pid, err := client.ActiveWindowPid()
	if err != nil {
		return 0
	}
	return pid
}

// MoveFocus writes "focusstack-\n" (Left/Up) or "focusstack+\n"
// (Right/Down) to the fifo. dwm's stock focusstack command has no
// per-direction semantics (spec.md §9 open question); Left/Up and
// Right/Down both map onto the stack cycle.
func (d *DwmBackend) MoveFocus(dir direction.Direction) {
	var cmd string
	switch dir {
	case direction.Left, direction.Up:
		cmd = "focusstack-\n"
	case direction.Right, direction.Down:
		cmd = "focusstack+\n"
	default:
		return
	}

	fd, err := unix.Open(d.fifoPath, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return
	}
	defer unix.Close(fd)
	_, _ = unix.Write(fd, []byte(cmd))
}

// Disconnect is a no-op: DwmBackend opens fresh connections per call.
func (d *DwmBackend) Disconnect() {}
