package main

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/embervale/worldserver/internal/broker"
	"github.com/embervale/worldserver/internal/config"
	gonet "github.com/embervale/worldserver/internal/net"
	"github.com/embervale/worldserver/internal/net/packet"
	"github.com/embervale/worldserver/internal/persist"
	"github.com/embervale/worldserver/internal/resultcode"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/broker.toml"
	if p := os.Getenv("EMBERVALE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting session broker", zap.String("server", cfg.Server.Name))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	accountRepo := persist.NewAccountRepo(db)
	characterRepo := persist.NewCharacterRepo(db)
	channelRepo := persist.NewChannelRepo(db)
	guildRepo := persist.NewGuildRepo(db)

	// The map-id-to-runtime table is the Broker's routing table for
	// handoffs and redirects (spec §4.9/§4.10). A single-runtime
	// deployment answers every map id the same way; a sharded
	// deployment would instead key this off map-id ranges.
	runtimes := staticRuntimeDirectory{addr: runtimeAddrFromConfig(cfg)}
	link := &tcpRuntimeLink{dialTimeout: 5 * time.Second}

	auth := broker.NewAuth(accountRepo, characterRepo, runtimes, link, log)
	redirector := broker.NewRedirector(characterRepo, runtimes, link, log)

	sessions := gonet.NewSessionStore()
	chat := broker.NewChatHub(channelRepo, sessions)
	guilds := broker.NewGuildService(guildRepo, channelRepo)
	parties := broker.NewPartyService(&sessionPartySink{sessions: sessions, log: log})

	dispatcher := broker.NewDispatcher(log)
	registerCommands(dispatcher, guilds, parties, log)

	netServer, err := gonet.NewServer(cfg.Network.BindAddress, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()
	defer netServer.Shutdown()

	registry := packet.NewRegistry(log)
	broker.RegisterHandlers(registry, &broker.HandlerDeps{
		Accounts:   accountRepo,
		Characters: characterRepo,
		Auth:       auth,
		Chat:       chat,
		Guilds:     guilds,
		Parties:    parties,
		Commands:   dispatcher,
		Log:        log,
	})

	redirectLn, err := net.Listen("tcp", cfg.Network.BrokerRedirectAddress)
	if err != nil {
		return fmt.Errorf("redirect rpc listener: %w", err)
	}
	defer redirectLn.Close()
	go broker.ServeRedirectRPC(redirectLn, redirector, log)

	log.Info("session broker ready",
		zap.String("addr", netServer.Addr().String()),
		zap.String("redirect_addr", cfg.Network.BrokerRedirectAddress),
	)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	// The Broker has no tick-phase Runner (unlike the worldserver's
	// simulation loop); a ticker-driven pump drains each session's
	// InQueue here instead, reusing the same per-session packet budget
	// (spec §6 "rate limiting" / maintainer review gap (a)).
	drainTicker := time.NewTicker(cfg.Network.TickRate)
	defer drainTicker.Stop()

	for {
		select {
		case <-drainTicker.C:
			drainInbound(sessions, registry, cfg.Network.MaxPacketsPerTick)
		case sess := <-netServer.NewSessions():
			sessions.Add(sess)
		case id := <-netServer.DeadSessions():
			sessions.Remove(id)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
}

// drainInbound dispatches up to maxPerTick queued messages per session,
// mirroring internal/system.InputSystem's drain loop on the worldserver
// side but without a Runner/Phase wrapper since the Broker has neither.
func drainInbound(sessions *gonet.SessionStore, registry *packet.Registry, maxPerTick int) {
	sessions.Each(func(sess *gonet.Session) {
		if sess.IsClosed() {
			return
		}
		for i := 0; i < maxPerTick; i++ {
			select {
			case msg := <-sess.InQueue:
				registry.Dispatch(sess, sess.State(), msg.MsgID, msg.Payload)
			default:
				return
			}
		}
	})
}

// registerCommands wires the administrative commands an operator can
// run against the Hub (spec §6 "Command syntax"). The catalog here is
// deliberately small; the Dispatcher itself places no limit on it.
func registerCommands(d *broker.Dispatcher, guilds *broker.GuildService, parties *broker.PartyService, log *zap.Logger) {
	d.Register(broker.CommandSpec{
		Name:      "disbandguild",
		MinRights: 1,
		Args:      []broker.ArgKind{broker.ArgInt},
		Run: func(c *broker.CommandContext, args []string) resultcode.Code {
			guildID, err := strconv.Atoi(args[0])
			if err != nil {
				return resultcode.InvalidArgument
			}
			return guilds.Disband(context.Background(), int32(guildID))
		},
	})
	d.Register(broker.CommandSpec{
		Name:      "disband",
		MinRights: 0,
		Args:      []broker.ArgKind{broker.ArgInt},
		Run: func(c *broker.CommandContext, args []string) resultcode.Code {
			partyID, err := strconv.Atoi(args[0])
			if err != nil {
				return resultcode.InvalidArgument
			}
			parties.Leave(int32(partyID), c.CallerCharID)
			return resultcode.OK
		},
	})
}

// runtimeAddrFromConfig resolves the one worldserver runtime this
// single-shard deployment hands clients off to.
func runtimeAddrFromConfig(cfg *config.Config) broker.RuntimeAddr {
	host, portStr, err := net.SplitHostPort(cfg.Network.InterServerBindAddress)
	if err != nil {
		return broker.RuntimeAddr{Host: "127.0.0.1", Port: 7100}
	}
	port, _ := strconv.Atoi(portStr)
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return broker.RuntimeAddr{Host: host, Port: port}
}

// staticRuntimeDirectory answers every map id with the same runtime
// address (spec §4.9: "the Broker looks up the destination runtime").
type staticRuntimeDirectory struct {
	addr broker.RuntimeAddr
}

func (d staticRuntimeDirectory) RuntimeForMap(int32) (broker.RuntimeAddr, bool) {
	return d.addr, true
}

// tcpRuntimeLink ships a GameHandoff to a runtime's inter-server
// listener as a gob-encoded frame over a short-lived TCP connection.
// No pack example wires up cross-process RPC (the teacher is a single
// monolithic process); gob is the stdlib's own wire format for exactly
// this, so it is the one library-free choice the ecosystem itself
// endorses for a Go-to-Go internal link.
type tcpRuntimeLink struct {
	dialTimeout time.Duration
}

func (l *tcpRuntimeLink) SendHandoff(addr broker.RuntimeAddr, handoff broker.GameHandoff) error {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", addr.Host, addr.Port), l.dialTimeout)
	if err != nil {
		return fmt.Errorf("dial runtime: %w", err)
	}
	defer conn.Close()

	w := bufio.NewWriter(conn)
	if err := gob.NewEncoder(w).Encode(handoff); err != nil {
		return fmt.Errorf("encode handoff: %w", err)
	}
	return w.Flush()
}

// sessionPartySink notifies connected clients of a party-id change via
// their session, once the wire format for that notification exists.
type sessionPartySink struct {
	sessions *gonet.SessionStore
	log      *zap.Logger
}

func (s *sessionPartySink) PartyChanged(charID, partyID int32) {
	s.log.Debug("party changed", zap.Int32("char_id", charID), zap.Int32("party_id", partyID))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
