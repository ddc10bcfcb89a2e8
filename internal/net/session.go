package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/embervale/worldserver/internal/net/packet"
	"go.uber.org/zap"
)

// handshakeMsgID is the plaintext message id used exactly once per
// session, before the cipher is live, to ship the session's encryption
// key to the client.
const handshakeMsgID uint16 = 0

// outboundMessage pairs a message id with its payload for the writer
// goroutine.
type outboundMessage struct {
	msgID   uint16
	payload []byte
}

// InboundMessage pairs a decoded message id with its payload for the
// game loop.
type InboundMessage struct {
	MsgID   uint16
	Payload []byte
}

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; game state is accessed only from the game loop.
type Session struct {
	ID   uint64
	conn net.Conn

	cipher *Cipher
	state  atomic.Int32 // packet.SessionState stored as int32
	mu     sync.Mutex    // protects conn writes during handshake and disconnect

	InQueue  chan InboundMessage
	OutQueue chan outboundMessage

	IP          string
	AccountName string
	CharName    string

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, inSize, outSize int, log *zap.Logger) *Session {
	s := &Session{
		ID:       id,
		conn:     conn,
		InQueue:  make(chan InboundMessage, inSize),
		OutQueue: make(chan outboundMessage, outSize),
		IP:       conn.RemoteAddr().String(),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(packet.StateHandshake))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Start sends the plaintext handshake frame (the session's ChaCha20
// key), initializes the cipher, and launches the reader/writer
// goroutines.
func (s *Session) Start() error {
	key, err := NewSessionKey()
	if err != nil {
		s.Close()
		return err
	}

	s.mu.Lock()
	err = WriteFrame(s.conn, ChannelGame, handshakeMsgID, key[:])
	s.mu.Unlock()
	if err != nil {
		s.log.Error("handshake send failed", zap.Error(err))
		s.Close()
		return err
	}

	s.cipher, err = NewCipher(key, s.ID)
	if err != nil {
		s.Close()
		return err
	}

	go s.readLoop()
	go s.writeLoop()
	return nil
}

// Send queues a message for the writer goroutine. Non-blocking: if
// OutQueue is full, the session is disconnected (backpressure, §5).
func (s *Session) Send(msgID uint16, payload []byte) {
	if s.closed.Load() {
		return
	}
	select {
	case s.OutQueue <- outboundMessage{msgID: msgID, payload: payload}:
	default:
		s.log.Warn("output queue full, dropping slow client")
		s.Close()
	}
}

// SendDisconnect writes a message on the reserved disconnect channel
// synchronously, guaranteeing it reaches the client before the
// connection closes (§6 "deliver before close"), then closes the
// session.
func (s *Session) SendDisconnect(msgID uint16, payload []byte) {
	s.mu.Lock()
	if !s.closed.Load() {
		encrypted := append([]byte(nil), payload...)
		if s.cipher != nil {
			s.cipher.Encrypt(encrypted)
		}
		s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		_ = WriteFrame(s.conn, ChannelDisconnect, msgID, encrypted)
	}
	s.mu.Unlock()
	s.Close()
}

// Close gracefully shuts down the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop runs in its own goroutine. It reads frames, decrypts them,
// and pushes them onto InQueue for the game loop to consume.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, msgID, payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		decrypted := s.cipher.Decrypt(payload)

		select {
		case s.InQueue <- InboundMessage{MsgID: msgID, Payload: decrypted}:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop runs in its own goroutine. It reads messages from OutQueue,
// encrypts them, and writes them framed to the connection.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case msg := <-s.OutQueue:
			s.log.Debug("tx", zap.Uint16("msg_id", msg.msgID), zap.Int("len", len(msg.payload)))

			encrypted := make([]byte, len(msg.payload))
			copy(encrypted, msg.payload)
			s.cipher.Encrypt(encrypted)

			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := WriteFrame(s.conn, ChannelGame, msg.msgID, encrypted); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
