package main

import (
	"context"
	"encoding/gob"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/embervale/worldserver/internal/broker"
	"github.com/embervale/worldserver/internal/config"
	"github.com/embervale/worldserver/internal/core/ecs"
	coresys "github.com/embervale/worldserver/internal/core/system"
	"github.com/embervale/worldserver/internal/data"
	gonet "github.com/embervale/worldserver/internal/net"
	"github.com/embervale/worldserver/internal/net/packet"
	"github.com/embervale/worldserver/internal/persist"
	"github.com/embervale/worldserver/internal/scripting"
	"github.com/embervale/worldserver/internal/session"
	"github.com/embervale/worldserver/internal/system"
	"github.com/embervale/worldserver/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/worldserver.toml"
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

	log.Info("starting world runtime", zap.String("server", cfg.Server.Name), zap.Int("id", cfg.Server.ID))

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

	charRepo := persist.NewCharacterRepo(db)

	// Surface any write-ahead log entries left behind by a crash before
	// this runtime admits a single client (spec §7 "crash recovery").
	// Replaying them into live character state is the economic
	// transaction system's job (trade/shop), not yet wired here; this
	// only guarantees none go unnoticed.
	walRepo := persist.NewWALRepo(db)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pending, err := walRepo.Unprocessed(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("wal recovery: %w", err)
		}
		if len(pending) > 0 {
			log.Warn("unprocessed economic wal entries found at startup", zap.Int("count", len(pending)))
		}
	}

	// Load static content.
	mapDefs, err := data.LoadMaps("data/maps")
	if err != nil {
		return fmt.Errorf("load maps: %w", err)
	}
	monsterClasses, err := data.LoadMonsterClasses("data/monsters")
	if err != nil {
		return fmt.Errorf("load monster classes: %w", err)
	}
	itemClasses, err := data.LoadItemClasses("data/items")
	if err != nil {
		return fmt.Errorf("load item classes: %w", err)
	}
	log.Info("content loaded",
		zap.Int("maps", len(mapDefs)),
		zap.Int("monster_classes", len(monsterClasses)),
		zap.Int("item_classes", itemClasses.Count()),
	)

	luaEngine, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()

	maps := make([]*world.Map, 0, len(mapDefs))
	mapByID := make(map[int32]*world.Map, len(mapDefs))
	for _, md := range mapDefs {
		m := world.NewMap(md.ID, md.Name, md.PvP, md.Width, md.Height, md.Walkable)
		maps = append(maps, m)
		mapByID[md.ID] = m
		spawnMonsters(m, md, monsterClasses, log)
	}

	// Systems, ordered by the tick phases they occupy (spec §5).
	runner := coresys.NewRunner()
	runner.Register(system.NewRegenSystem(maps, time.Now))
	attackSys := system.NewCombatSystem()
	runner.Register(attackSys)
	runner.Register(system.NewMonsterAISystem(maps, attackSys))
	runner.Register(system.NewMovementSystem(maps))

	sessions := gonet.NewSessionStore()
	visSink := &packetVisibilitySink{sessions: sessions, log: log}
	runner.Register(system.NewVisibilitySystem(maps, visSink, 2))

	persistSys := system.NewPersistenceSystem(maps, charRepo, buildSnapshot, log, cfg.Persistence.FlushIntervalTicks)
	runner.Register(persistSys)

	cleanupSys := system.NewCleanupSystem(maps)
	runner.Register(cleanupSys)

	bindings := system.NewSessionBindings()
	commandSys := system.NewCommandSystem(log)
	redirectClient := &redirectClientAdapter{client: &broker.RedirectRPCClient{Addr: cfg.Network.BrokerRedirectAddress, DialTimeout: 5 * time.Second}}
	redirectSys := system.NewRedirectSystem(maps, bindings, sessions, persistSys, redirectClient, log)
	runner.Register(redirectSys)

	registry := packet.NewRegistry(log)
	system.RegisterWorldHandlers(registry, &system.WorldHandlerDeps{
		Maps:      mapByID,
		Bindings:  bindings,
		Combat:    attackSys,
		Classes:   itemClasses,
		Persist:   persistSys,
		Commands:  commandSys,
		Scripting: luaEngine,
		Log:       log,
	})
	inputSys := system.NewInputSystem(sessions, registry, cfg.Network.MaxPacketsPerTick, log)
	runner.Register(inputSys)

	// Client listener: game clients connect here and present the
	// handoff token the Broker gave them.
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()
	defer netServer.Shutdown()

	handoffs := session.NewTokenCollector[*handoffHandler, *gonet.Session, broker.GameHandoff](
		&handoffHandler{sessions: sessions, bindings: bindings, maps: mapByID, classes: itemClasses, log: log},
	)
	go sweepHandoffs(handoffs, cfg.Session)

	// Inter-server listener: the Broker dials this to ship handoff
	// tokens (spec §4.9 "the runtime admits a pending token").
	interServerLn, err := net.Listen("tcp", cfg.Network.InterServerBindAddress)
	if err != nil {
		return fmt.Errorf("inter-server listener: %w", err)
	}
	defer interServerLn.Close()
	go acceptHandoffs(interServerLn, handoffs, log)

	log.Info("world runtime ready", zap.String("addr", netServer.Addr().String()))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case sess := <-netServer.NewSessions():
			sessions.Add(sess)
		case id := <-netServer.DeadSessions():
			handleSessionDeath(id, bindings, persistSys, sessions, log)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			persistSys.FlushAllNow(flushCtx)
			cancel()
			return nil
		}
	}
}

// handleSessionDeath tears down a disconnected client's character:
// cancels any active trade/shop transaction (so a peer isn't left
// waiting forever), flushes the snapshot synchronously, despawns the
// entity, and drops the session binding and store entry.
func handleSessionDeath(id uint64, bindings *system.SessionBindings, persistSys *system.PersistenceSystem, sessions *gonet.SessionStore, log *zap.Logger) {
	bind, ok := bindings.Get(id)
	if ok {
		if char, ok := bind.Map.Chars.Get(bind.EntityID); ok {
			char.CancelTransaction()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := persistSys.FlushNow(ctx, bind.Map, bind.EntityID); err != nil {
				log.Error("disconnect flush failed", zap.Int32("char_id", char.CharID), zap.Error(err))
			}
			cancel()
		}
		bind.Map.Despawn(bind.EntityID)
		bindings.Unbind(id)
	}
	sessions.Remove(id)
}

// redirectClientAdapter adapts broker.RedirectRPCClient's response shape
// to the system.RedirectClient interface, so internal/system need not
// import the Broker's RPC wire types directly.
type redirectClientAdapter struct {
	client *broker.RedirectRPCClient
}

func (a *redirectClientAdapter) Redirect(ctx context.Context, charID, destMapID int32, destX, destY int16) (system.RedirectOutcome, error) {
	resp, err := a.client.Redirect(ctx, charID, destMapID, destX, destY)
	if err != nil {
		return system.RedirectOutcome{}, err
	}
	return system.RedirectOutcome{Code: resp.Code, Host: resp.Host, Port: resp.Port, Token: resp.Token}, nil
}

// spawnMonsters creates a Monster actor for every spawn entry whose
// class is known, placed at the spawn rectangle's center.
func spawnMonsters(m *world.Map, md *data.MapDef, classes map[int32]*world.MonsterClass, log *zap.Logger) {
	for _, sp := range md.Spawns {
		class, ok := classes[sp.MonsterClassID]
		if !ok {
			log.Warn("spawn references unknown monster class", zap.Int32("class_id", sp.MonsterClassID), zap.Int32("map", md.ID))
			continue
		}
		for i := int32(0); i < sp.MaxPopulation; i++ {
			x := (sp.MinX + sp.MaxX) / 2
			y := (sp.MinY + sp.MaxY) / 2
			id := m.SpawnThing(world.KindMonster, x, y, 1)
			m.Beings.Set(id, beingFromAttrs(class.BaseAttrs))
			mon := world.NewMonster(class)
			mon.SpawnX, mon.SpawnY = x, y
			m.Monsters.Set(id, mon)
		}
	}
}

// beingFromAttrs builds a Being at full health from a base attribute
// vector, used both for freshly spawned monsters and for characters
// admitted from a handoff snapshot.
func beingFromAttrs(attrs [world.AttributeCount]int32) *world.Being {
	hp := attrs[world.AttrHP]
	return &world.Being{Base: attrs, CurrentHP: hp, MaxHP: hp}
}

// handoffHandler admits a client presenting a Broker-minted token once
// the matching GameHandoff has arrived (spec §4.9). Binding the
// character into the world happens on the match, in whichever order
// the client connection and the Broker's RPC land.
type handoffHandler struct {
	sessions *gonet.SessionStore
	bindings *system.SessionBindings
	maps     map[int32]*world.Map
	classes  *world.ItemClassTable
	log      *zap.Logger
}

func (h *handoffHandler) DeletePendingClient(sess *gonet.Session) {
	h.log.Warn("handoff token expired before server data arrived", zap.Uint64("session", sess.ID))
	sess.SendDisconnect(0, nil)
}

func (h *handoffHandler) DeletePendingConnect(handoff broker.GameHandoff) {
	h.log.Warn("handoff token expired before client connected", zap.Int32("char_id", handoff.CharID))
}

func (h *handoffHandler) TokenMatched(sess *gonet.Session, handoff broker.GameHandoff) {
	m, ok := h.maps[int32(handoff.Snapshot.MapID)]
	if !ok {
		h.log.Error("handoff targets unknown map", zap.Int32("map", int32(handoff.Snapshot.MapID)))
		sess.SendDisconnect(0, nil)
		return
	}
	id := m.SpawnThing(world.KindCharacter, int32(handoff.Snapshot.X), int32(handoff.Snapshot.Y), 1)
	var attrs [world.AttributeCount]int32
	for i, a := range handoff.Snapshot.Attributes {
		attrs[i] = int32(a)
	}
	m.Beings.Set(id, beingFromAttrs(attrs))
	if actor, ok := m.Actors.Get(id); ok {
		actor.Speed = world.DefaultCharacterSpeed
	}

	char := &world.Character{
		CharID:           handoff.CharID,
		AccountLevel:     handoff.Snapshot.AccountLevel,
		Gender:           handoff.Snapshot.Gender,
		HairStyle:        handoff.Snapshot.HairStyle,
		HairColor:        handoff.Snapshot.HairColor,
		Level:            handoff.Snapshot.Level,
		SkillExp:         handoff.Snapshot.SkillExp,
		CharacterPoints:  handoff.Snapshot.CharacterPoints,
		CorrectionPoints: handoff.Snapshot.CorrectionPoints,
		Inventory:        world.NewInventory(h.classes),
		Equipment:        &world.Equipment{},
		Money:            handoff.Snapshot.Money,
		MapID:            m.ID,
	}
	for _, slot := range handoff.Snapshot.Inventory {
		char.Inventory.Insert(int32(slot.ItemID), int32(slot.Amount))
	}
	for i, itemID := range handoff.Snapshot.Equipment {
		if itemID != 0 {
			char.Equipment.Slots[i] = world.InventorySlot{ItemID: int32(itemID), Amount: 1}
		}
	}
	m.Chars.Set(id, char)

	sess.SetState(packet.StateInWorld)
	h.bindings.Bind(sess.ID, system.CharacterBinding{Map: m, EntityID: id, CharID: handoff.CharID})
	h.sessions.Add(sess)
	h.log.Info("character admitted", zap.Int32("char_id", handoff.CharID), zap.Int32("map", m.ID))
}

// acceptHandoffs reads one gob-encoded GameHandoff per inter-server
// connection from the Broker and registers it as a pending connect,
// matched against whichever client presents the same token first
// (spec §4.9: "in whichever order they happen to arrive").
func acceptHandoffs(ln net.Listener, c *session.TokenCollector[*handoffHandler, *gonet.Session, broker.GameHandoff], log *zap.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			var handoff broker.GameHandoff
			if err := gob.NewDecoder(conn).Decode(&handoff); err != nil {
				log.Warn("malformed handoff from broker", zap.Error(err))
				return
			}
			c.AddPendingConnect(string(handoff.Token[:]), handoff)
		}()
	}
}

func sweepHandoffs(c *session.TokenCollector[*handoffHandler, *gonet.Session, broker.GameHandoff], cfg config.SessionConfig) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		c.Sweep(cfg.RuntimeTokenTTL)
	}
}

// buildSnapshot assembles the canonical snapshot form from live
// components, used by PersistenceSystem for both periodic and
// synchronous flushes.
func buildSnapshot(m *world.Map, id ecs.EntityID, c *world.Character) *persist.CharacterSnapshot {
	a, _ := m.Actors.Get(id)
	b, _ := m.Beings.Get(id)
	snap := &persist.CharacterSnapshot{
		AccountLevel:     c.AccountLevel,
		Gender:           c.Gender,
		HairStyle:        c.HairStyle,
		HairColor:        c.HairColor,
		Level:            c.Level,
		CharacterPoints:  c.CharacterPoints,
		CorrectionPoints: c.CorrectionPoints,
		SkillExp:         c.SkillExp,
		MapID:            int16(m.ID),
		Money:            c.Money,
	}
	if b != nil {
		for i := range snap.Attributes {
			snap.Attributes[i] = byte(b.Base[i])
		}
	}
	if a != nil {
		snap.X, snap.Y = int16(a.X), int16(a.Y)
	}
	if c.Equipment != nil {
		for i, slot := range c.Equipment.Slots {
			snap.Equipment[i] = int16(slot.ItemID)
		}
	}
	if c.Inventory != nil {
		for _, slot := range c.Inventory.Slots {
			if slot.Empty() {
				continue
			}
			snap.Inventory = append(snap.Inventory, persist.InventorySlotSnapshot{
				ItemID: int16(slot.ItemID),
				Amount: byte(slot.Amount),
			})
		}
	}
	return snap
}

// packetVisibilitySink is a placeholder wire-up point: a full client
// protocol would serialize VisibilityDelta into entered/left packets
// here. Logged at debug level until the outward packet catalog exists.
type packetVisibilitySink struct {
	sessions *gonet.SessionStore
	log      *zap.Logger
}

func (s *packetVisibilitySink) PublishVisibility(d system.VisibilityDelta) {
	s.log.Debug("visibility delta",
		zap.Uint64("char", uint64(d.Character)),
		zap.Int("entered", len(d.Entered)),
		zap.Int("left", len(d.Left)),
	)
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
