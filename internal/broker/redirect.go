package broker

import (
	"context"
	"crypto/rand"

	"go.uber.org/zap"

	"github.com/embervale/worldserver/internal/persist"
	"github.com/embervale/worldserver/internal/resultcode"
)

// RedirectResponse is what the Broker returns to the originating
// runtime so it can forward address+port+token to the client and close
// its session (spec §4.10 step 3).
type RedirectResponse struct {
	Addr  RuntimeAddr
	Token [32]byte
}

// Redirector implements the Broker side of §4.10: it owns the character
// snapshot's authoritative map/position update and mints the new token
// for the destination runtime.
type Redirector struct {
	characters *persist.CharacterRepo
	runtimes   RuntimeDirectory
	link       RuntimeLink
	log        *zap.Logger
}

func NewRedirector(characters *persist.CharacterRepo, runtimes RuntimeDirectory, link RuntimeLink, log *zap.Logger) *Redirector {
	return &Redirector{characters: characters, runtimes: runtimes, link: link, log: log}
}

// Redirect updates the snapshot's map/position, mints a token, and ships
// the handoff to the destination runtime (spec §4.10 step 2). The
// caller (the originating runtime's RPC handler) must have already
// flushed the prior snapshot and requested this redirect only after
// removing the character from its old map (step 1) — ordering enforced
// by the runtime side, not here.
func (rd *Redirector) Redirect(ctx context.Context, charID int32, newMapID int32, newX, newY int16) (RedirectResponse, resultcode.Code) {
	row, err := rd.characters.GetByID(ctx, charID)
	if err != nil {
		return RedirectResponse{}, resultcode.InvalidArgument
	}

	row.Snapshot.MapID = int16(newMapID)
	row.Snapshot.X = newX
	row.Snapshot.Y = newY
	if err := rd.characters.UpdateSnapshot(ctx, charID, row.Snapshot); err != nil {
		rd.log.Error("redirect: snapshot update failed", zap.Error(err))
		return RedirectResponse{}, resultcode.Failure
	}

	addr, ok := rd.runtimes.RuntimeForMap(newMapID)
	if !ok {
		return RedirectResponse{}, resultcode.Failure
	}

	var token [32]byte
	if _, err := rand.Read(token[:]); err != nil {
		return RedirectResponse{}, resultcode.Failure
	}

	handoff := GameHandoff{CharID: charID, Token: token, Snapshot: row.Snapshot}
	// The client-redirect reply (below) is only returned after this send
	// completes, which is what guarantees the snapshot reaches the
	// destination before the client's token can (spec §5 "Between
	// runtimes" ordering guarantee).
	if err := rd.link.SendHandoff(addr, handoff); err != nil {
		rd.log.Error("redirect: handoff send failed", zap.Error(err))
		return RedirectResponse{}, resultcode.Failure
	}

	return RedirectResponse{Addr: addr, Token: token}, resultcode.OK
}
