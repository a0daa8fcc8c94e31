package wm

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"nvg/internal/direction"
	"nvg/internal/sockutil"
)

// i3-ipc message types used by nvg (spec.md §4.4.1).
const (
	i3IpcCommand  = 0
	i3IpcGetTree  = 4
)

var i3Magic = []byte("i3-ipc")

const i3HeaderLen = 14 // 6-byte magic + u32 length + u32 type

// SwayBackend speaks the i3/sway IPC protocol: a 14-byte
// "i3-ipc"+len+type header followed by a JSON payload, native
// (little-endian on every platform nvg runs on) byte order.
type SwayBackend struct {
	conn    net.Conn
	timeout time.Duration
}

// NewSwayBackend dials $SWAYSOCK or $I3SOCK.
func NewSwayBackend(cfg Config) (*SwayBackend, error) {
	sock := os.Getenv("SWAYSOCK")
	if sock == "" {
		sock = os.Getenv("I3SOCK")
	}
	conn, err := sockutil.Dial(sock, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	return &SwayBackend{conn: conn, timeout: cfg.Timeout}, nil
}

func (s *SwayBackend) send(msgType uint32, payload []byte) ([]byte, error) {
	msg := make([]byte, i3HeaderLen+len(payload))
	copy(msg[0:6], i3Magic)
	binary.LittleEndian.PutUint32(msg[6:10], uint32(len(payload)))
	binary.LittleEndian.PutUint32(msg[10:14], msgType)
	copy(msg[i3HeaderLen:], payload)

	if err := sockutil.WriteAll(s.conn, msg); err != nil {
		return nil, err
	}

	header := make([]byte, i3HeaderLen)
	if err := sockutil.ReadExact(s.conn, header); err != nil {
		return nil, err
	}
	respLen := binary.LittleEndian.Uint32(header[6:10])
	if respLen == 0 {
		return nil, nil
	}
	resp := make([]byte, respLen)
	if err := sockutil.ReadExact(s.conn, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type i3Node struct {
	Focused bool     `json:"focused"`
	Pid     int      `json:"pid"`
	Nodes   []i3Node `json:"nodes"`
	Floating []i3Node `json:"floating_nodes"`
}

func findFocused(n i3Node) (int, bool) {
	if n.Focused && n.Pid > 0 {
		return n.Pid, true
	}
	for _, c := range n.Nodes {
		if pid, ok := findFocused(c); ok {
			return pid, true
		}
	}
	for _, c := range n.Floating {
		if pid, ok := findFocused(c); ok {
			return pid, true
		}
	}
	return 0, false
}

// FocusedPid issues GET_TREE and walks it for the focused node.
func (s *SwayBackend) FocusedPid() int {
	resp, err := s.send(i3IpcGetTree, nil)
	if err != nil || resp == nil {
		return 0
	}
	var root i3Node
	if err := json.Unmarshal(resp, &root); err != nil {
		return 0
	}
	pid, _ := findFocused(root)
	return pid
}

// MoveFocus issues `focus left|right|up|down`.
func (s *SwayBackend) MoveFocus(dir direction.Direction) {
	_, _ = s.send(i3IpcCommand, []byte("focus "+dir.String()))
}

// Disconnect closes the IPC socket.
func (s *SwayBackend) Disconnect() {
	if s.conn != nil {
		s.conn.Close()
	}
}
