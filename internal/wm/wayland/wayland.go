// Package wayland implements the minimal slice of the Wayland wire
// protocol nvg's River backend needs: object framing, argument
// encoding, and the opcodes for the registry bind and the sync-based
// roundtrip barrier, which the River backend itself drives. It is not a general
// client library — there is no event-object dispatch table, only the
// handful of interfaces River's foreign-toplevel and river-control
// protocols require (spec.md §4.4.4).
package wayland

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"nvg/internal/sockutil"
)

// ErrProtocol covers a malformed frame or an unexpected wl_display
// error event; callers collapse it to a no-op per spec.md §4.4.4.
var ErrProtocol = errors.New("wayland: protocol error")

// DisplayObjectId is always 1, the one object id every Wayland
// connection starts with.
const DisplayObjectId uint32 = 1

// wl_display request opcodes.
const (
	OpDisplaySync        uint16 = 0
	OpDisplayGetRegistry uint16 = 1
)

// wl_display event opcodes.
const (
	EventDisplayError uint16 = 0
)

// wl_registry event/request opcodes.
const (
	EventRegistryGlobal uint16 = 0
	OpRegistryBind      uint16 = 0
)

// wl_callback event opcodes.
const (
	EventCallbackDone uint16 = 0
)

// SocketPath resolves $XDG_RUNTIME_DIR/$WAYLAND_DISPLAY.
func SocketPath() (string, error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	display := os.Getenv("WAYLAND_DISPLAY")
	if runtimeDir == "" || display == "" {
		return "", fmt.Errorf("%w: XDG_RUNTIME_DIR or WAYLAND_DISPLAY not set", ErrProtocol)
	}
	return runtimeDir + "/" + display, nil
}

// pad4 rounds n up to a 4-byte boundary, the Wayland wire padding rule.
func pad4(n int) int {
	return (n + 3) &^ 3
}

// Global is one entry advertised by wl_registry.global.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Event is one decoded Wayland event: the object it targets, its
// opcode, and the raw argument bytes (still to be parsed by the
// caller, since argument shape is opcode-specific).
type Event struct {
	ObjectId uint32
	Opcode   uint16
	Args     []byte
}

// Conn is a raw Wayland connection: message framing only, no object
// model beyond a monotonically increasing id allocator.
type Conn struct {
	conn    connLike
	timeout time.Duration
	nextID  uint32
}

// connLike is the subset of net.Conn sockutil.Dial returns that Conn
// needs; declared here so Connect can be exercised against sockutil's
// return value without importing net directly into call sites.
type connLike interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

// Connect dials the compositor socket and returns a Conn with id
// allocation starting at 2 (id 1 is reserved for wl_display).
func Connect(timeout time.Duration) (*Conn, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	conn, err := sockutil.Dial(path, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect wayland socket: %w", err)
	}
	return &Conn{conn: conn, timeout: timeout, nextID: 2}, nil
}

// NewID allocates a fresh client-side object id.
func (c *Conn) NewID() uint32 {
	id := c.nextID
	c.nextID++
	return id
}

// Close closes the underlying socket.
func (c *Conn) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// SendMessage writes one request: object_id, opcode and size header
// followed by args, little-endian throughout.
func (c *Conn) SendMessage(objectID uint32, opcode uint16, args []byte) error {
	size := 8 + len(args)
	buf := make([]byte, 8, size)
	binary.LittleEndian.PutUint32(buf[0:4], objectID)
	binary.LittleEndian.PutUint16(buf[4:6], opcode)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(size))
	buf = append(buf, args...)

	for len(buf) > 0 {
		n, err := c.conn.Write(buf)
		if err != nil {
			return fmt.Errorf("write wayland message: %w", err)
		}
		buf = buf[n:]
	}
	return nil
}

// NextEvent reads exactly one event frame. A short read is retried by
// readExact's loop, so NextEvent blocks until a full 8-byte
// header plus its declared payload is available (spec.md §5's "no
// partial messages are dispatched" rule).
func (c *Conn) NextEvent() (Event, error) {
	header := make([]byte, 8)
	if err := readExact(c.conn, header); err != nil {
		return Event{}, err
	}
	objectID := binary.LittleEndian.Uint32(header[0:4])
	opcode := binary.LittleEndian.Uint16(header[4:6])
	size := binary.LittleEndian.Uint16(header[6:8])
	if size < 8 {
		return Event{}, fmt.Errorf("%w: event size %d smaller than header", ErrProtocol, size)
	}
	args := make([]byte, size-8)
	if len(args) > 0 {
		if err := readExact(c.conn, args); err != nil {
			return Event{}, err
		}
	}
	return Event{ObjectId: objectID, Opcode: opcode, Args: args}, nil
}

func readExact(r interface{ Read(b []byte) (int, error) }, buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return fmt.Errorf("read wayland frame: %w", err)
		}
	}
	return nil
}

// AppendUint32 appends a plain uint32 argument (also used for object-id
// and new-id arguments, which are wire-identical to uint32).
func AppendUint32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return append(buf, b...)
}

// AppendString appends a Wayland string argument: length (including the
// trailing NUL), the bytes, a NUL terminator, then padding to 4 bytes.
func AppendString(buf []byte, s string) []byte {
	buf = AppendUint32(buf, uint32(len(s)+1))
	buf = append(buf, s...)
	buf = append(buf, 0)
	pad := pad4(len(s)+1) - (len(s) + 1)
	return append(buf, make([]byte, pad)...)
}

// AppendArray appends a Wayland array argument: length in bytes, the
// bytes, padded to 4.
func AppendArray(buf []byte, data []byte) []byte {
	buf = AppendUint32(buf, uint32(len(data)))
	buf = append(buf, data...)
	pad := pad4(len(data)) - len(data)
	return append(buf, make([]byte, pad)...)
}

// ReadUint32 reads a uint32 argument at offset off.
func ReadUint32(args []byte, off int) (uint32, error) {
	if off+4 > len(args) {
		return 0, fmt.Errorf("%w: short argument buffer", ErrProtocol)
	}
	return binary.LittleEndian.Uint32(args[off : off+4]), nil
}

// ReadString reads a Wayland string argument starting at off, returning
// the decoded string (without its NUL) and the offset just past its
// padded encoding.
func ReadString(args []byte, off int) (string, int, error) {
	n, err := ReadUint32(args, off)
	if err != nil {
		return "", 0, err
	}
	if n == 0 {
		return "", 0, fmt.Errorf("%w: zero-length string argument", ErrProtocol)
	}
	start := off + 4
	end := start + int(n) - 1 // exclude the NUL from the returned string
	if end > len(args) || end < start {
		return "", 0, fmt.Errorf("%w: string argument out of range", ErrProtocol)
	}
	s := string(args[start:end])
	next := start + pad4(int(n))
	return s, next, nil
}

// ReadArray reads a Wayland array argument starting at off.
func ReadArray(args []byte, off int) ([]byte, int, error) {
	n, err := ReadUint32(args, off)
	if err != nil {
		return nil, 0, err
	}
	start := off + 4
	end := start + int(n)
	if end > len(args) {
		return nil, 0, fmt.Errorf("%w: array argument out of range", ErrProtocol)
	}
	next := start + pad4(int(n))
	return args[start:end], next, nil
}
