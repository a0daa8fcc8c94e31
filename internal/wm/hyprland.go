package wm

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"nvg/internal/direction"
	"nvg/internal/sockutil"
)

// HyprlandBackend speaks Hyprland's plain-text control socket: one
// request per connection, write then shut down the write half (the
// server treats that as end-of-request), read the reply until EOF.
type HyprlandBackend struct {
	sockPath string
	timeout  time.Duration
}

// NewHyprlandBackend resolves the control socket path from
// $XDG_RUNTIME_DIR/hypr/$HYPRLAND_INSTANCE_SIGNATURE/.socket.sock.
func NewHyprlandBackend(cfg Config) (*HyprlandBackend, error) {
	sig := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if sig == "" || runtimeDir == "" {
		return nil, fmt.Errorf("%w: hyprland env not set", ErrConnectFailed)
	}
	sock := runtimeDir + "/hypr/" + sig + "/.socket.sock"
	if err := sockutil.ValidatePath(sock); err != nil {
		return nil, err
	}
	return &HyprlandBackend{sockPath: sock, timeout: cfg.Timeout}, nil
}

func (h *HyprlandBackend) request(msg string) ([]byte, error) {
	conn, err := sockutil.Dial(h.sockPath, h.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	defer conn.Close()

	if err := sockutil.WriteAll(conn, []byte(msg)); err != nil {
		return nil, err
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return nil, fmt.Errorf("shutdown write half: %w", err)
		}
	}

	buf := make([]byte, 8192)
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			if err == io.EOF {
				break
			}
			return buf[:total], err
		}
	}
	return buf[:total], nil
}

type hyprActiveWindow struct {
	Pid int `json:"pid"`
}

// FocusedPid sends "j/activewindow" and parses the pid field. Pid 0 is
// treated as no focused window, per spec.md §4.4.2.
func (h *HyprlandBackend) FocusedPid() int {
	resp, err := h.request("j/activewindow")
	if err != nil || len(resp) == 0 {
		return 0
	}
	var aw hyprActiveWindow
	if err := json.Unmarshal(resp, &aw); err != nil {
		return 0
	}
	return aw.Pid
}

var hyprDirLetter = map[direction.Direction]string{
	direction.Left:  "l",
	direction.Right: "r",
	direction.Up:    "u",
	direction.Down:  "d",
}

// MoveFocus sends "dispatch movefocus l|r|u|d".
func (h *HyprlandBackend) MoveFocus(dir direction.Direction) {
	_, _ = h.request("dispatch movefocus " + hyprDirLetter[dir])
}

// Disconnect is a no-op: HyprlandBackend opens a fresh connection per
// call and holds no persistent state.
func (h *HyprlandBackend) Disconnect() {}
