package wm

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"nvg/internal/direction"
	"nvg/internal/sockutil"
)

// NiriBackend speaks Niri's newline-terminated JSON socket protocol:
// each request is one line of JSON, each response is one line wrapped as
// {"Ok": ...} or {"Err": "..."}.
type NiriBackend struct {
	sockPath string
	timeout  time.Duration
}

// NewNiriBackend resolves the socket path from $NIRI_SOCKET.
func NewNiriBackend(cfg Config) (*NiriBackend, error) {
	sock := os.Getenv("NIRI_SOCKET")
	if err := sockutil.ValidatePath(sock); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	return &NiriBackend{sockPath: sock, timeout: cfg.Timeout}, nil
}

func (n *NiriBackend) request(reqLine string) ([]byte, error) {
	conn, err := sockutil.Dial(n.sockPath, n.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	defer conn.Close()

	if err := sockutil.WriteAll(conn, []byte(reqLine+"\n")); err != nil {
		return nil, err
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, fmt.Errorf("niri read: %w", err)
	}
	return line, nil
}

type niriFocusedWindowResult struct {
	Ok struct {
		FocusedWindow *struct {
			Pid *int32 `json:"pid"`
		} `json:"FocusedWindow"`
	} `json:"Ok"`
}

// FocusedPid sends "FocusedWindow" and null-safely parses .Ok.FocusedWindow.pid.
func (n *NiriBackend) FocusedPid() int {
	resp, err := n.request(`"FocusedWindow"`)
	if err != nil {
		return 0
	}
	var r niriFocusedWindowResult
	if err := json.Unmarshal(resp, &r); err != nil {
		return 0
	}
	if r.Ok.FocusedWindow == nil || r.Ok.FocusedWindow.Pid == nil {
		return 0
	}
	pid := *r.Ok.FocusedWindow.Pid
	if pid <= 0 {
		return 0
	}
	return int(pid)
}

var niriMoveAction = map[direction.Direction]string{
	direction.Left:  "FocusColumnOrMonitorLeft",
	direction.Right: "FocusColumnOrMonitorRight",
	direction.Up:    "FocusWindowOrMonitorUp",
	direction.Down:  "FocusWindowOrMonitorDown",
}

// MoveFocus sends the {"Action":{"Focus...":{}}} request for dir.
func (n *NiriBackend) MoveFocus(dir direction.Direction) {
	action := niriMoveAction[dir]
	req := fmt.Sprintf(`{"Action":{%q:{}}}`, action)
	_, _ = n.request(req)
}

// Disconnect is a no-op: NiriBackend opens a fresh connection per call.
func (n *NiriBackend) Disconnect() {}
