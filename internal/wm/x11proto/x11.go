// Package x11proto implements just enough of the raw X11 client
// protocol (spec.md §4.4.5) to answer one question: which pid owns the
// active window on the requested display. There is no Xlib/XCB
// dependency — connection setup, InternAtom and GetProperty are hand
// framed exactly as the wire protocol defines them, little-endian
// throughout, every field padded to 4 bytes.
package x11proto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"nvg/internal/sockutil"
)

// ErrProtocol covers any malformed or unexpected reply from the X
// server; callers collapse it to "absent" per spec.md §7.
var ErrProtocol = errors.New("x11proto: protocol error")

// pad4 rounds n up to the next multiple of 4, the padding rule the X11
// wire format uses for every variable-length field.
func pad4(n int) int {
	return (n + 3) &^ 3
}

// DisplayAddr is a parsed $DISPLAY value: [host]:display[.screen].
type DisplayAddr struct {
	Host    string
	Display int
	Screen  int
}

// ParseDisplay parses the X11 $DISPLAY syntax.
func ParseDisplay(s string) (DisplayAddr, error) {
	if s == "" {
		return DisplayAddr{}, fmt.Errorf("%w: empty $DISPLAY", ErrProtocol)
	}
	colon := strings.LastIndex(s, ":")
	if colon < 0 {
		return DisplayAddr{}, fmt.Errorf("%w: missing ':' in %q", ErrProtocol, s)
	}
	host := s[:colon]
	rest := s[colon+1:]

	display := rest
	screen := 0
	if dot := strings.Index(rest, "."); dot >= 0 {
		display = rest[:dot]
		sc, err := strconv.Atoi(rest[dot+1:])
		if err != nil {
			return DisplayAddr{}, fmt.Errorf("%w: bad screen in %q", ErrProtocol, s)
		}
		screen = sc
	}
	d, err := strconv.Atoi(display)
	if err != nil {
		return DisplayAddr{}, fmt.Errorf("%w: bad display number in %q", ErrProtocol, s)
	}
	return DisplayAddr{Host: host, Display: d, Screen: screen}, nil
}

// SocketPath returns the abstract Unix socket path for a local display.
func (d DisplayAddr) SocketPath() string {
	return "/tmp/.X11-unix/X" + strconv.Itoa(d.Display)
}

const (
	xauthFamilyLocal    = 256
	xauthFamilyWild     = 0
	xauthMinRecordBytes = 2
)

// XauthEntry is one parsed Xauthority record.
type XauthEntry struct {
	Family  uint16
	Address string
	Number  string
	Name    []byte
	Data    []byte
}

// ParseXauth parses the big-endian Xauthority record stream from data.
func ParseXauth(data []byte) ([]XauthEntry, error) {
	var entries []XauthEntry
	r := bytes.NewReader(data)
	for r.Len() > 0 {
		var family uint16
		if err := binary.Read(r, binary.BigEndian, &family); err != nil {
			break
		}
		addr, err := readXauthField(r)
		if err != nil {
			return entries, nil // truncated trailing record: stop, keep what we have
		}
		number, err := readXauthField(r)
		if err != nil {
			return entries, nil
		}
		name, err := readXauthField(r)
		if err != nil {
			return entries, nil
		}
		data, err := readXauthField(r)
		if err != nil {
			return entries, nil
		}
		entries = append(entries, XauthEntry{
			Family:  family,
			Address: string(addr),
			Number:  string(number),
			Name:    name,
			Data:    data,
		})
	}
	return entries, nil
}

func readXauthField(r *bytes.Reader) ([]byte, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil && n > 0 {
		return nil, err
	}
	return buf, nil
}

// SelectXauthEntry picks the first entry matching spec.md §4.4.5 step 2:
// family 0 (wild), or family 256 (FamilyLocal) with address equal to the
// local hostname, and in both cases a matching decimal display number.
func SelectXauthEntry(entries []XauthEntry, hostname string, display int) (XauthEntry, bool) {
	want := strconv.Itoa(display)
	for _, e := range entries {
		if e.Number != want {
			continue
		}
		if e.Family == xauthFamilyWild {
			return e, true
		}
		if e.Family == xauthFamilyLocal && e.Address == hostname {
			return e, true
		}
	}
	return XauthEntry{}, false
}

// LocalHostname returns uname().nodename, used to match FamilyLocal
// Xauthority entries.
func LocalHostname() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return cString(uts.Nodename[:]), nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// LoadAuth reads $XAUTHORITY (or $HOME/.Xauthority) and returns the
// entry matching the given display, per step 2 of spec.md §4.4.5.
func LoadAuth(display int) (name, authData []byte, err error) {
	path := os.Getenv("XAUTHORITY")
	if path == "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return nil, nil, fmt.Errorf("%w: no $XAUTHORITY and no $HOME", ErrProtocol)
		}
		path = home + "/.Xauthority"
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read xauthority: %w", err)
	}

	entries, _ := ParseXauth(raw)
	hostname, err := LocalHostname()
	if err != nil {
		return nil, nil, err
	}

	entry, ok := SelectXauthEntry(entries, hostname, display)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no matching xauth entry for display %d", ErrProtocol, display)
	}
	return entry.Name, entry.Data, nil
}

// Client is one connection-setup-to-teardown session against a local X
// server, used only to answer FocusedPid.
type Client struct {
	conn        net.Conn
	timeout     time.Duration
	seq         uint16
	rootWindows []uint32
}

// Connect performs the raw connection setup handshake described in
// spec.md §4.4.5 step 3-4: little-endian byte order, protocol 11.0, auth
// name/data length-prefixed and padded to 4 bytes.
func Connect(disp DisplayAddr, timeout time.Duration) (*Client, error) {
	authName, authData, err := LoadAuth(disp.Display)
	if err != nil {
		// Proceed without auth; many local setups permit unauthenticated
		// connections when Xauthority lookup fails.
		authName, authData = nil, nil
	}

	conn, err := sockutil.Dial(disp.SocketPath(), timeout)
	if err != nil {
		return nil, err
	}

	setup := buildSetupRequest(authName, authData)
	if err := sockutil.WriteAll(conn, setup); err != nil {
		conn.Close()
		return nil, err
	}

	header := make([]byte, 8)
	if err := sockutil.ReadExact(conn, header); err != nil {
		conn.Close()
		return nil, err
	}
	status := header[0]
	additionalLen := binary.LittleEndian.Uint16(header[6:8])

	body := make([]byte, int(additionalLen)*4)
	if len(body) > 0 {
		if err := sockutil.ReadExact(conn, body); err != nil {
			conn.Close()
			return nil, err
		}
	}
	if status != 1 {
		conn.Close()
		return nil, fmt.Errorf("%w: X server refused connection setup (status=%d)", ErrProtocol, status)
	}

	roots, err := parseScreens(body)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Client{conn: conn, timeout: timeout, seq: 1, rootWindows: roots}, nil
}

func buildSetupRequest(authName, authData []byte) []byte {
	nameLen := len(authName)
	dataLen := len(authData)

	buf := make([]byte, 0, 12+pad4(nameLen)+pad4(dataLen))
	buf = append(buf, 'l', 0)
	buf = appendU16(buf, 11) // protocol-major-version
	buf = appendU16(buf, 0)  // protocol-minor-version
	buf = appendU16(buf, uint16(nameLen))
	buf = appendU16(buf, uint16(dataLen))
	buf = appendU16(buf, 0) // unused pad
	buf = append(buf, authName...)
	buf = append(buf, make([]byte, pad4(nameLen)-nameLen)...)
	buf = append(buf, authData...)
	buf = append(buf, make([]byte, pad4(dataLen)-dataLen)...)
	return buf
}

func appendU16(buf []byte, v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return append(buf, b...)
}

// parseScreens walks the connection-setup body per spec.md §4.4.5 step 4
// and returns each screen's root window id.
func parseScreens(body []byte) ([]uint32, error) {
	if len(body) < 32 {
		return nil, fmt.Errorf("%w: setup body too short", ErrProtocol)
	}
	vendorLen := int(binary.LittleEndian.Uint16(body[16:18]))
	numRoots := int(body[20])
	numFormats := int(body[21])

	off := 32 + pad4(vendorLen) + numFormats*8
	var roots []uint32
	for i := 0; i < numRoots; i++ {
		if off+40 > len(body) {
			return nil, fmt.Errorf("%w: truncated screen block", ErrProtocol)
		}
		root := binary.LittleEndian.Uint32(body[off : off+4])
		roots = append(roots, root)

		numDepths := int(body[off+39])
		screenOff := off + 40
		for d := 0; d < numDepths; d++ {
			if screenOff+8 > len(body) {
				return nil, fmt.Errorf("%w: truncated depth block", ErrProtocol)
			}
			numVisuals := int(binary.LittleEndian.Uint16(body[screenOff+2 : screenOff+4]))
			screenOff += 8 + numVisuals*24
		}
		off = screenOff
	}
	return roots, nil
}

func (c *Client) nextSeq() uint16 {
	s := c.seq
	c.seq++
	return s
}

// InternAtom requests the atom id for name (opcode 16).
func (c *Client) InternAtom(name string) (uint32, error) {
	req := make([]byte, 0, 8+pad4(len(name)))
	req = append(req, 16, 0) // opcode 16, only-if-exists=0
	length := uint16(2 + pad4(len(name))/4)
	req = appendU16(req, length)
	req = appendU16(req, uint16(len(name)))
	req = appendU16(req, 0) // unused
	req = append(req, name...)
	req = append(req, make([]byte, pad4(len(name))-len(name))...)

	if err := sockutil.WriteAll(c.conn, req); err != nil {
		return 0, err
	}
	c.nextSeq()

	reply := make([]byte, 32)
	if err := sockutil.ReadExact(c.conn, reply); err != nil {
		return 0, err
	}
	if reply[0] != 1 {
		return 0, fmt.Errorf("%w: InternAtom did not return a reply", ErrProtocol)
	}
	return binary.LittleEndian.Uint32(reply[8:12]), nil
}

// GetProperty requests a window property (opcode 20) and returns its
// raw value bytes (spec.md §4.4.5 step 6-7).
func (c *Client) GetProperty(window, property uint32) ([]byte, error) {
	req := make([]byte, 24)
	req[0] = 20 // opcode
	req[1] = 0  // delete = false
	binary.LittleEndian.PutUint16(req[2:4], 6)
	binary.LittleEndian.PutUint32(req[4:8], window)
	binary.LittleEndian.PutUint32(req[8:12], property)
	binary.LittleEndian.PutUint32(req[12:16], 0) // AnyPropertyType
	binary.LittleEndian.PutUint32(req[16:20], 0) // long-offset
	binary.LittleEndian.PutUint32(req[20:24], 0x7fffffff) // long-length

	if err := sockutil.WriteAll(c.conn, req); err != nil {
		return nil, err
	}
	c.nextSeq()

	header := make([]byte, 32)
	if err := sockutil.ReadExact(c.conn, header); err != nil {
		return nil, err
	}
	if header[0] != 1 {
		return nil, fmt.Errorf("%w: GetProperty did not return a reply", ErrProtocol)
	}
	format := header[1]
	replyLenUnits := binary.LittleEndian.Uint32(header[4:8])
	valueLen := binary.LittleEndian.Uint32(header[16:20])
	if format != 32 || valueLen < 1 {
		// Drain and discard any trailing bytes to keep the stream in sync.
		if replyLenUnits > 0 {
			trailing := make([]byte, replyLenUnits*4)
			_ = sockutil.ReadExact(c.conn, trailing)
		}
		return nil, fmt.Errorf("%w: property absent or wrong format", ErrProtocol)
	}

	trailing := make([]byte, replyLenUnits*4)
	if err := sockutil.ReadExact(c.conn, trailing); err != nil {
		return nil, err
	}
	return trailing, nil
}

// ActiveWindowPid resolves the pid behind _NET_ACTIVE_WINDOW /
// _NET_WM_PID on the first root window, per spec.md §4.4.5 steps 5-7.
func (c *Client) ActiveWindowPid() (int, error) {
	if len(c.rootWindows) == 0 {
		return 0, fmt.Errorf("%w: no root windows", ErrProtocol)
	}
	root := c.rootWindows[0]

	activeAtom, err := c.InternAtom("_NET_ACTIVE_WINDOW")
	if err != nil {
		return 0, err
	}
	pidAtom, err := c.InternAtom("_NET_WM_PID")
	if err != nil {
		return 0, err
	}

	activeVal, err := c.GetProperty(root, activeAtom)
	if err != nil {
		return 0, err
	}
	if len(activeVal) < 4 {
		return 0, fmt.Errorf("%w: _NET_ACTIVE_WINDOW too short", ErrProtocol)
	}
	activeWindow := binary.LittleEndian.Uint32(activeVal[0:4])
	if activeWindow == 0 {
		return 0, nil
	}

	pidVal, err := c.GetProperty(activeWindow, pidAtom)
	if err != nil {
		return 0, err
	}
	if len(pidVal) < 4 {
		return 0, fmt.Errorf("%w: _NET_WM_PID too short", ErrProtocol)
	}
	return int(binary.LittleEndian.Uint32(pidVal[0:4])), nil
}

// Close closes the underlying connection.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
