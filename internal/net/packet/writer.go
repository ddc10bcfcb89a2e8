package packet

import (
	"encoding/binary"
	"math"

	"golang.org/x/text/unicode/norm"
)

// Writer builds a message payload. All multi-byte writes are big-endian
// (§6 "Wire framing"). The message id itself is written separately by
// the frame codec, not by the Writer.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// WriteByte writes 1 byte.
func (w *Writer) WriteByte(v byte) {
	w.buf = append(w.buf, v)
}

// WriteUint16 writes 2 bytes big-endian.
func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteInt32 writes 4 bytes big-endian (signed).
func (w *Writer) WriteInt32(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteUint32 writes 4 bytes big-endian (unsigned).
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteString writes a 1-byte length prefix followed by the string's
// NFC-normalized UTF-8 bytes, truncated to fit a single byte length.
func (w *Writer) WriteString(s string) {
	norm := norm.NFC.String(s)
	if len(norm) > math.MaxUint8 {
		norm = norm[:math.MaxUint8]
	}
	w.buf = append(w.buf, byte(len(norm)))
	w.buf = append(w.buf, norm...)
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteTile packs a tile coordinate into 3 bytes: 11 bits x, 11 bits y,
// 2 bits reserved (§6).
func (w *Writer) WriteTile(x, y int16) {
	packed := (uint32(x)&0x7FF)<<13 | (uint32(y)&0x7FF)<<2
	w.buf = append(w.buf, byte(packed>>16), byte(packed>>8), byte(packed))
}

// Bytes returns the accumulated payload.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the current payload length.
func (w *Writer) Len() int {
	return len(w.buf)
}
