package broker

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/embervale/worldserver/internal/resultcode"
)

// RedirectRPCRequest is what a runtime ships the Broker to ask for a
// cross-runtime character warp (spec §4.10 step 2): the character to
// move and its destination map/position.
type RedirectRPCRequest struct {
	CharID    int32
	DestMapID int32
	DestX     int16
	DestY     int16
}

// RedirectRPCResponse is the Broker's reply: either a runtime
// address+token for the client to reconnect with, or a failure code.
type RedirectRPCResponse struct {
	Code  resultcode.Code
	Host  string
	Port  int
	Token [32]byte
}

// ServeRedirectRPC accepts one gob-encoded RedirectRPCRequest per
// connection and replies with one gob-encoded RedirectRPCResponse,
// mirroring the handoff link's one-shot-connection-per-call shape
// (cmd/broker/main.go's tcpRuntimeLink/cmd/worldserver/main.go's
// acceptHandoffs) rather than a long-lived multiplexed RPC session —
// redirects are rare enough that connection setup cost doesn't matter.
func ServeRedirectRPC(ln net.Listener, rd *Redirector, log *zap.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go serveRedirectConn(conn, rd, log)
	}
}

func serveRedirectConn(conn net.Conn, rd *Redirector, log *zap.Logger) {
	defer conn.Close()

	var req RedirectRPCRequest
	if err := gob.NewDecoder(conn).Decode(&req); err != nil {
		log.Warn("malformed redirect rpc request", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, code := rd.Redirect(ctx, req.CharID, req.DestMapID, req.DestX, req.DestY)

	out := RedirectRPCResponse{Code: code}
	if code == resultcode.OK {
		out.Host, out.Port, out.Token = resp.Addr.Host, resp.Addr.Port, resp.Token
	}

	w := bufio.NewWriter(conn)
	if err := gob.NewEncoder(w).Encode(out); err != nil {
		log.Warn("redirect rpc response encode failed", zap.Error(err))
		return
	}
	if err := w.Flush(); err != nil {
		log.Warn("redirect rpc response flush failed", zap.Error(err))
	}
}

// RedirectRPCClient is a runtime's caller-side handle to the Broker's
// redirect RPC (the wire-reachable counterpart to Redirector.Redirect,
// which otherwise has no caller — spec §4.10 step 2).
type RedirectRPCClient struct {
	Addr        string
	DialTimeout time.Duration
}

func (c *RedirectRPCClient) Redirect(ctx context.Context, charID, destMapID int32, destX, destY int16) (RedirectRPCResponse, error) {
	d := net.Dialer{Timeout: c.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return RedirectRPCResponse{}, fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	w := bufio.NewWriter(conn)
	req := RedirectRPCRequest{CharID: charID, DestMapID: destMapID, DestX: destX, DestY: destY}
	if err := gob.NewEncoder(w).Encode(req); err != nil {
		return RedirectRPCResponse{}, fmt.Errorf("encode redirect request: %w", err)
	}
	if err := w.Flush(); err != nil {
		return RedirectRPCResponse{}, fmt.Errorf("flush redirect request: %w", err)
	}

	var resp RedirectRPCResponse
	if err := gob.NewDecoder(conn).Decode(&resp); err != nil {
		return RedirectRPCResponse{}, fmt.Errorf("decode redirect response: %w", err)
	}
	return resp, nil
}
