package jelly

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"jellyflow/internal/stream"
)

// field is one decoded protobuf field. at is the absolute stream offset of
// the tag; data is the absolute offset of b for length-delimited fields.
type field struct {
	num  protowire.Number
	typ  protowire.Type
	v    uint64
	b    []byte
	at   int64
	data int64
}

func decodeErr(at int64, format string, args ...any) error {
	return &stream.DecodeError{Offset: at, Err: fmt.Errorf(format, args...)}
}

// walk calls fn for every field of msg, which starts at stream offset base.
func walk(msg []byte, base int64, fn func(f field) error) error {
	for off := 0; off < len(msg); {
		num, typ, n := protowire.ConsumeTag(msg[off:])
		if n < 0 {
			return &stream.DecodeError{Offset: base + int64(off), Err: protowire.ParseError(n)}
		}
		f := field{num: num, typ: typ, at: base + int64(off)}
		rest := msg[off+n:]

		var m int
		switch typ {
		case protowire.VarintType:
			f.v, m = protowire.ConsumeVarint(rest)
		case protowire.BytesType:
			f.b, m = protowire.ConsumeBytes(rest)
			if m >= 0 {
				f.data = f.at + int64(n+m-len(f.b))
			}
		default:
			m = protowire.ConsumeFieldValue(num, typ, rest)
		}
		if m < 0 {
			return &stream.DecodeError{Offset: f.at, Err: protowire.ParseError(m)}
		}
		if err := fn(f); err != nil {
			return err
		}
		off += n + m
	}
	return nil
}

func (f field) bytes() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, decodeErr(f.at, "field %d: want length-delimited, got wire type %d", f.num, f.typ)
	}
	return f.b, nil
}

func (f field) str() (string, error) {
	b, err := f.bytes()
	return string(b), err
}

func (f field) uint() (uint64, error) {
	if f.typ != protowire.VarintType {
		return 0, decodeErr(f.at, "field %d: want varint, got wire type %d", f.num, f.typ)
	}
	return f.v, nil
}
