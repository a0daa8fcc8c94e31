// Package msgpack implements the narrow slice of MessagePack-RPC that
// nvg's neovim hook needs: encoding a request envelope
// [0, msgid, method, [arg]] and decoding a response envelope
// [1, msgid, error, result] down to an unsigned integer result. It is
// not a general-purpose msgpack library — anything neovim's RPC surface
// doesn't use for winnr()/wincmd/command calls is out of scope.
package msgpack

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Msgpack-RPC message types.
const (
	TypeRequest  = 0
	TypeResponse = 1
)

// ErrUnexpectedMsgId is returned by DecodeResponse when the reply's
// msgid does not match the id the caller expects — spec.md §9 requires
// this rather than silently handing back a mismatched response.
var ErrUnexpectedMsgId = errors.New("msgpack: unexpected msgid")

// ErrShortBuffer indicates the buffer ended before a complete value was
// decoded; treated as ParseFailed by callers.
var ErrShortBuffer = errors.New("msgpack: short buffer")

// ErrRPCError indicates the response's error field was non-nil; the
// caller (the neovim hook) treats this as NvimError -> absent.
var ErrRPCError = errors.New("msgpack: rpc error")

const (
	fixstrMask  = 0xa0
	fixstrLimit = 32
	fixarrayLo  = 0x90
	nilByte     = 0xc0
	str8        = 0xd9
	str16       = 0xda
	str32       = 0xdb
	array16     = 0xdc
	array32     = 0xdd
	uint8Marker = 0xcc
	uint16Mark  = 0xcd
	uint32Mark  = 0xce
	uint64Mark  = 0xcf
)

// EncodeRequest builds a [0, msgid, method, [arg]] request frame. arg is
// the single positional parameter every RPC nvg issues takes (an eval
// expression or a command string). The params array always holds
// exactly one string; there is no zero-argument form.
func EncodeRequest(msgid uint32, method string, arg string) []byte {
	buf := make([]byte, 0, 32+len(method)+len(arg))
	buf = appendFixArray(buf, 4)
	buf = appendUint(buf, uint64(TypeRequest))
	buf = appendUint(buf, uint64(msgid))
	buf = appendString(buf, method)
	buf = appendFixArray(buf, 1)
	buf = appendString(buf, arg)
	return buf
}

func appendFixArray(buf []byte, n int) []byte {
	return append(buf, byte(fixarrayLo|n))
}

func appendUint(buf []byte, v uint64) []byte {
	switch {
	case v <= 0x7f:
		return append(buf, byte(v))
	case v <= 0xff:
		return append(buf, uint8Marker, byte(v))
	case v <= 0xffff:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(v))
		return append(append(buf, uint16Mark), b...)
	case v <= 0xffffffff:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(v))
		return append(append(buf, uint32Mark), b...)
	default:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, v)
		return append(append(buf, uint64Mark), b...)
	}
}

// appendString picks fixstr for length < 32 and str8 otherwise, per
// spec.md §9's exact switch point. Strings longer than 255 bytes never
// occur in this RPC subset (method names and short eval expressions),
// so str16/str32 encoding is not implemented.
func appendString(buf []byte, s string) []byte {
	if len(s) < fixstrLimit {
		buf = append(buf, byte(fixstrMask|len(s)))
	} else {
		buf = append(buf, str8, byte(len(s)))
	}
	return append(buf, s...)
}

// Response is a decoded [1, msgid, error, result] envelope with result
// interpreted as an unsigned integer, the only shape nvg's neovim hook
// needs (winnr() results and RPC error checks).
type Response struct {
	MsgId  uint32
	IsErr  bool
	Result uint64
}

// DecodeResponse parses a full response frame from buf and checks its
// msgid against expected. A mismatched msgid is ErrUnexpectedMsgId
// rather than a silently accepted response.
func DecodeResponse(buf []byte, expected uint32) (Response, error) {
	r := &reader{buf: buf}

	n, err := r.readArrayHeader()
	if err != nil {
		return Response{}, err
	}
	if n != 4 {
		return Response{}, fmt.Errorf("%w: expected 4-element response array, got %d", ErrShortBuffer, n)
	}

	typ, err := r.readUint()
	if err != nil {
		return Response{}, err
	}
	if typ != TypeResponse {
		return Response{}, fmt.Errorf("msgpack: not a response frame (type=%d)", typ)
	}

	msgid, err := r.readUint()
	if err != nil {
		return Response{}, err
	}
	if uint32(msgid) != expected {
		return Response{}, fmt.Errorf("%w: got %d, expected %d", ErrUnexpectedMsgId, msgid, expected)
	}

	isErr, err := r.skipErrorField()
	if err != nil {
		return Response{}, err
	}

	if isErr {
		_ = r.skipValue() // consume the (unused) result slot
		return Response{MsgId: uint32(msgid), IsErr: true}, ErrRPCError
	}

	result, err := r.readUint()
	if err != nil {
		return Response{}, err
	}

	return Response{MsgId: uint32(msgid), Result: result}, nil
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) next() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrShortBuffer
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, ErrShortBuffer
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) readArrayHeader() (int, error) {
	b, err := r.next()
	if err != nil {
		return 0, err
	}
	switch {
	case b>>4 == fixarrayLo>>4:
		return int(b & 0x0f), nil
	case b == array16:
		buf, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return int(binary.BigEndian.Uint16(buf)), nil
	case b == array32:
		buf, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return int(binary.BigEndian.Uint32(buf)), nil
	default:
		return 0, fmt.Errorf("msgpack: expected array header, got 0x%02x", b)
	}
}

// readUint decodes a fixint (<=0x7f) or one of the uint8-uint64 markers
// (0xcc-0xcf) with big-endian byte assembly, per spec.md §9.
func (r *reader) readUint() (uint64, error) {
	b, err := r.next()
	if err != nil {
		return 0, err
	}
	switch {
	case b <= 0x7f:
		return uint64(b), nil
	case b == uint8Marker:
		buf, err := r.take(1)
		if err != nil {
			return 0, err
		}
		return uint64(buf[0]), nil
	case b == uint16Mark:
		buf, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint16(buf)), nil
	case b == uint32Mark:
		buf, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint32(buf)), nil
	case b == uint64Mark:
		buf, err := r.take(8)
		if err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint64(buf), nil
	default:
		return 0, fmt.Errorf("msgpack: expected uint, got 0x%02x", b)
	}
}

// skipErrorField reports whether the error slot is non-nil, consuming
// exactly one value (nil marker or a full string/array error value).
func (r *reader) skipErrorField() (bool, error) {
	if r.pos >= len(r.buf) {
		return false, ErrShortBuffer
	}
	if r.buf[r.pos] == nilByte {
		r.pos++
		return false, nil
	}
	if err := r.skipValue(); err != nil {
		return false, err
	}
	return true, nil
}

// skipValue consumes one msgpack value without decoding its contents,
// used only to step over the error field's payload when it is set.
func (r *reader) skipValue() error {
	b, err := r.next()
	if err != nil {
		return err
	}
	switch {
	case b == nilByte:
		return nil
	case b <= 0x7f, b&0xe0 == 0xe0:
		return nil // fixint or negative fixint
	case b&0xe0 == fixstrMask:
		_, err := r.take(int(b & 0x1f))
		return err
	case b>>4 == fixarrayLo>>4:
		n := int(b & 0x0f)
		for i := 0; i < n; i++ {
			if err := r.skipValue(); err != nil {
				return err
			}
		}
		return nil
	case b == str8:
		lb, err := r.next()
		if err != nil {
			return err
		}
		_, err = r.take(int(lb))
		return err
	case b == uint8Marker:
		_, err := r.take(1)
		return err
	case b == uint16Mark:
		_, err := r.take(2)
		return err
	case b == uint32Mark:
		_, err := r.take(4)
		return err
	case b == uint64Mark:
		_, err := r.take(8)
		return err
	default:
		return fmt.Errorf("msgpack: cannot skip value with marker 0x%02x", b)
	}
}
