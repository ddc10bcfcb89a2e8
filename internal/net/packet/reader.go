package packet

import (
	"encoding/binary"

	"golang.org/x/text/unicode/norm"
)

// Reader reads big-endian fields from a decoded message payload (§6).
// The message id itself has already been stripped by the frame codec;
// the Reader only sees the payload that follows it.
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadByte reads 1 unsigned byte.
func (r *Reader) ReadByte() byte {
	if r.off >= len(r.data) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadUint16 reads 2 bytes big-endian.
func (r *Reader) ReadUint16() uint16 {
	if r.off+2 > len(r.data) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadInt32 reads 4 bytes big-endian, signed.
func (r *Reader) ReadInt32() int32 {
	if r.off+4 > len(r.data) {
		return 0
	}
	v := int32(binary.BigEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadUint32 reads 4 bytes big-endian, unsigned.
func (r *Reader) ReadUint32() uint32 {
	if r.off+4 > len(r.data) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

// ReadString reads a length-prefixed (1-byte length) string and
// normalizes it to NFC — client input control-plane fields (character
// names, chat text, channel topics) must compare equal regardless of
// the composed/decomposed Unicode form the client sent.
func (r *Reader) ReadString() string {
	n := int(r.ReadByte())
	raw := r.ReadBytes(n)
	return norm.NFC.String(string(raw))
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if n < 0 {
		return nil
	}
	if r.off+n > len(r.data) {
		remaining := r.data[r.off:]
		r.off = len(r.data)
		return remaining
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// ReadTile reads a 3-byte packed tile coordinate: 11 bits x, 11 bits y,
// 2 bits reserved (§6 "Wire framing").
func (r *Reader) ReadTile() (x, y int16) {
	raw := r.ReadBytes(3)
	if len(raw) < 3 {
		return 0, 0
	}
	packed := uint32(raw[0])<<16 | uint32(raw[1])<<8 | uint32(raw[2])
	x = int16((packed >> 13) & 0x7FF)
	y = int16((packed >> 2) & 0x7FF)
	return x, y
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
