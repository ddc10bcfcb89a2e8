// Package broker implements the Session Broker process: account login,
// token minting for the game/chat handoff, and the Chat/Guild/Party Hub
// (spec §4.9, §4.11).
package broker

import (
	"context"
	"crypto/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/embervale/worldserver/internal/persist"
	"github.com/embervale/worldserver/internal/resultcode"
)

// RuntimeAddr is a registered worldserver's reconnect address, looked up
// by the map id a character is about to enter.
type RuntimeAddr struct {
	Host string
	Port int
}

// RuntimeDirectory resolves which runtime hosts a given map (spec §4.9:
// "chosen by the character's current map id").
type RuntimeDirectory interface {
	RuntimeForMap(mapID int32) (RuntimeAddr, bool)
}

// GameHandoff is what the Broker hands a runtime alongside a freshly
// minted token: the character snapshot it must admit (spec §4.9).
type GameHandoff struct {
	CharID   int32
	Token    [32]byte
	Snapshot *persist.CharacterSnapshot
}

// RuntimeLink pushes a handoff to a specific runtime's administrative
// channel. Implemented by whatever transport connects Broker<->runtime
// (in cmd/broker, tcpRuntimeLink: one short-lived TCP connection per
// handoff, gob-encoded).
type RuntimeLink interface {
	SendHandoff(addr RuntimeAddr, handoff GameHandoff) error
}

// Auth handles login and character-select, producing the token + runtime
// address the client reconnects with (spec §4.9 E1).
type Auth struct {
	accounts   *persist.AccountRepo
	characters *persist.CharacterRepo
	runtimes   RuntimeDirectory
	link       RuntimeLink
	log        *zap.Logger
}

func NewAuth(accounts *persist.AccountRepo, characters *persist.CharacterRepo, runtimes RuntimeDirectory, link RuntimeLink, log *zap.Logger) *Auth {
	return &Auth{accounts: accounts, characters: characters, runtimes: runtimes, link: link, log: log}
}

// Login validates credentials and returns the account, or a
// resultcode.Code describing why it failed.
func (a *Auth) Login(ctx context.Context, name, password string) (*persist.Account, resultcode.Code) {
	acct, err := a.accounts.GetByName(ctx, name)
	if err != nil {
		if err == persist.ErrNotFound {
			return nil, resultcode.NoLogin
		}
		a.log.Error("login: account lookup failed", zap.Error(err))
		return nil, resultcode.Failure
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return nil, resultcode.NoLogin
	}
	if acct.BannedUntil != nil && !time.Now().After(*acct.BannedUntil) {
		return nil, resultcode.InsufficientRights
	}
	return acct, resultcode.OK
}

// HashPassword is used by account creation/password-change flows.
func HashPassword(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
}

// SelectCharacter mints a token, ships the snapshot to the destination
// runtime, and returns the runtime address + token for the client
// (spec §4.9, E1 "character-select(slot=0) ... response(OK, token[32],
// address, port)").
func (a *Auth) SelectCharacter(ctx context.Context, charID int32) (RuntimeAddr, [32]byte, resultcode.Code) {
	var token [32]byte
	row, err := a.characters.GetByID(ctx, charID)
	if err != nil {
		return RuntimeAddr{}, token, resultcode.InvalidArgument
	}

	addr, ok := a.runtimes.RuntimeForMap(int32(row.Snapshot.MapID))
	if !ok {
		a.log.Error("no runtime hosts map", zap.Int32("map_id", int32(row.Snapshot.MapID)))
		return RuntimeAddr{}, token, resultcode.Failure
	}

	if _, err := rand.Read(token[:]); err != nil {
		return RuntimeAddr{}, token, resultcode.Failure
	}

	handoff := GameHandoff{CharID: charID, Token: token, Snapshot: row.Snapshot}
	if err := a.link.SendHandoff(addr, handoff); err != nil {
		a.log.Error("handoff send failed", zap.Error(err))
		return RuntimeAddr{}, token, resultcode.Failure
	}

	return addr, token, resultcode.OK
}
