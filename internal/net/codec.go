package net

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ChannelGame carries all ordinary gameplay traffic.
// ChannelDisconnect is reserved for "deliver before close" notifications
// (§6): a disconnect frame is written synchronously, bypassing the
// session's buffered OutQueue, so it always reaches the client ahead of
// the connection actually closing.
const (
	ChannelGame       byte = 0x00
	ChannelDisconnect byte = 0xFF
)

// Frame wire format: [2B BE total length incl. header][1B channel][2B BE
// message id][payload]. All multi-byte integers are big-endian (§6).
const frameHeaderLen = 2 + 1 + 2

// ReadFrame reads one frame from r and returns its channel, message id,
// and payload.
func ReadFrame(r io.Reader) (channel byte, msgID uint16, payload []byte, err error) {
	var lenBuf [2]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, 0, nil, fmt.Errorf("read frame length: %w", err)
	}
	totalLen := int(binary.BigEndian.Uint16(lenBuf[:]))
	if totalLen < frameHeaderLen || totalLen > 65535 {
		return 0, 0, nil, fmt.Errorf("invalid frame length: %d", totalLen)
	}

	rest := make([]byte, totalLen-2)
	if _, err = io.ReadFull(r, rest); err != nil {
		return 0, 0, nil, fmt.Errorf("read frame body (%d bytes): %w", len(rest), err)
	}
	channel = rest[0]
	msgID = binary.BigEndian.Uint16(rest[1:3])
	payload = rest[3:]
	return channel, msgID, payload, nil
}

// WriteFrame writes one frame to w.
func WriteFrame(w io.Writer, channel byte, msgID uint16, payload []byte) error {
	totalLen := frameHeaderLen + len(payload)
	if totalLen > 65535 {
		return fmt.Errorf("frame too large: %d bytes", totalLen)
	}
	buf := make([]byte, totalLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(totalLen))
	buf[2] = channel
	binary.BigEndian.PutUint16(buf[3:5], msgID)
	copy(buf[5:], payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
