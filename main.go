package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/automoto/battleboxes/assets"
	"github.com/automoto/battleboxes/config"
	"github.com/automoto/battleboxes/fonts"
	"github.com/automoto/battleboxes/game"
	"github.com/automoto/battleboxes/logging"
	"github.com/automoto/battleboxes/network"
	"github.com/automoto/battleboxes/persistence"
	"github.com/automoto/battleboxes/shared/collisionmap"
	"github.com/automoto/battleboxes/shared/leveldata"
	"github.com/automoto/battleboxes/shared/messages"
	"github.com/automoto/battleboxes/shared/physics"
	"github.com/automoto/battleboxes/shared/protocol"
	"github.com/automoto/battleboxes/sim"
)

const joinTimeout = 10 * time.Second

// offlineID is the network id of the player in a local session.
const offlineID = 1

const defaultLevel = "arena"

// runner ends the ebiten loop once the session context is done.
type runner struct {
	*game.Game
	ctx context.Context
}

func (r runner) Update() error {
	if r.ctx.Err() != nil {
		return ebiten.Termination
	}
	return r.Game.Update()
}

func main() {
	configPath := flag.String("config", "battleboxes.yaml", "YAML config file (optional)")
	offline := flag.Bool("offline", false, "Run a local session without a server")
	levelName := flag.String("level", "", "Level for offline mode (default: last map played, else "+defaultLevel+")")
	address := flag.String("addr", "", "Server address (overrides config and saved prefs)")
	flag.Parse()

	if err := config.Load(*configPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logging.Init(config.Log); err != nil {
		log.Fatalf("Failed to init logging: %v", err)
	}
	defer logging.Sync()
	logger := logging.Named("main")

	var saved *persistence.Prefs
	store, err := persistence.Open("battleboxes")
	if err != nil {
		logger.Warnw("prefs unavailable", "error", err)
	} else if saved, err = store.LoadPrefs(); err != nil {
		logger.Warnw("prefs ignored", "error", err)
	} else if saved != nil {
		saved.Apply()
	}
	if *address != "" {
		config.Net.Address = *address
	}
	config.Debug.Offline = config.Debug.Offline || *offline

	// Register network components for client-side deserialization
	if err := protocol.RegisterComponents(); err != nil {
		logger.Fatalw("failed to register network components", "error", err)
	}
	if err := fonts.LoadDefaults(); err != nil {
		logger.Fatalw("failed to load fonts", "error", err)
	}

	loader := newLevelLoader()
	if err := loader.LoadAll(); err != nil {
		logger.Fatalw("failed to load levels", "error", err)
	}

	if config.Debug.PprofAddr != "" {
		go func() {
			logger.Infow("pprof listening", "addr", config.Debug.PprofAddr)
			if err := http.ListenAndServe(config.Debug.PprofAddr, nil); err != nil {
				logger.Warnw("pprof server stopped", "error", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var client *network.Client
	var session *sim.Session
	if config.Debug.Offline {
		session, err = startOffline(loader, saved.Level(*levelName, defaultLevel, loader.Names()))
	} else {
		client = network.NewClient(config.Net.ReportBuffer)
		session, err = startOnline(ctx, client, loader)
	}
	if err != nil {
		if client != nil {
			client.Disconnect()
		}
		logger.Fatalw("failed to start session", "error", err)
	}

	// The session closes itself when the server connection is lost; Run then
	// returns and cancelling ctx ends the window.
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		defer cancel()
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, sim.ErrClosed) {
			logger.Errorw("session stopped", "error", err)
		}
	}()

	if config.Level.HotReload {
		go watchLevels(ctx, loader, session, logger)
	}

	ebiten.SetWindowSize(config.C.Width, config.C.Height)
	ebiten.SetWindowTitle(config.C.Title)
	ebiten.SetRunnableOnUnfocused(true)
	g := game.New(session)
	if err := ebiten.RunGame(runner{Game: g, ctx: ctx}); err != nil {
		logger.Errorw("game stopped", "error", err)
	}

	cancel()
	session.Close()
	<-runDone
	if client != nil {
		client.Disconnect()
	}

	if store != nil {
		lastMap := ""
		if v := session.View(); v != nil && v.Map != nil {
			lastMap = v.Map.Name()
		}
		if err := store.SavePrefs(persistence.Current(lastMap, g.Overlay())); err != nil {
			logger.Warnw("prefs not saved", "error", err)
		}
	}
}

// newLevelLoader reads levels from disk when hot reload is on, otherwise
// from the copies embedded in the binary.
func newLevelLoader() *assets.LevelLoader {
	opts := leveldata.Options{
		CollisionLayer:   config.Level.CollisionLayer,
		SpawnGroup:       config.Level.SpawnGroup,
		FrictionProperty: config.Level.FrictionProperty,
	}
	var fsys fs.FS = assets.Embedded()
	dir := "levels"
	if config.Level.HotReload {
		fsys, dir = os.DirFS(config.Level.Dir), "."
	}
	return assets.NewLevelLoader(fsys, dir, opts)
}

func startOffline(loader *assets.LevelLoader, level string) (*sim.Session, error) {
	m, err := loader.Map(level)
	if err != nil {
		return nil, err
	}
	s, err := sim.NewSession(messages.SessionInit{Properties: config.Player.Properties}, m, loader, nil)
	if err != nil {
		return nil, err
	}
	if err := s.SpawnControlled(offlineID, spawnPoint(m, 0), config.Player.Properties); err != nil {
		return nil, err
	}
	return s, nil
}

func startOnline(ctx context.Context, client *network.Client, loader *assets.LevelLoader) (*sim.Session, error) {
	client.Connect(ctx, config.Net.Address, config.Net.Version, config.Net.PlayerName)

	joinCtx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()
	accepted, init, err := client.AwaitSession(joinCtx)
	if err != nil {
		return nil, fmt.Errorf("join %s: %w", config.Net.Address, err)
	}

	m, err := loader.Map(accepted.MapID)
	if err != nil {
		return nil, err
	}
	s, err := sim.NewSession(init, m, loader, client)
	if err != nil {
		return nil, err
	}
	props := init.Properties
	if props == (physics.MovementProperties{}) {
		props = config.Player.Properties
	}
	if err := s.SpawnControlled(accepted.NetworkID, spawnPoint(m, int(accepted.NetworkID)), props); err != nil {
		return nil, err
	}
	client.Attach(s)
	return s, nil
}

// spawnPoint picks one of the map's spawns, or the map centre if it has
// none.
func spawnPoint(m *collisionmap.Map, i int) mgl64.Vec2 {
	spawns := m.Spawns()
	if len(spawns) == 0 {
		return m.Bounds().Center()
	}
	return spawns[i%len(spawns)]
}

func watchLevels(ctx context.Context, loader *assets.LevelLoader, s *sim.Session, logger *zap.SugaredLogger) {
	err := config.Watch(ctx, config.Level.ReloadDebounce, []string{config.Level.Dir}, func(path string) {
		if filepath.Ext(path) != ".tmx" {
			return
		}
		name := strings.TrimSuffix(filepath.Base(path), ".tmx")
		m, err := loader.Reload(name)
		if err != nil {
			logger.Warnw("level reload failed", "level", name, "error", err)
			return
		}
		s.ReplaceMap(m)
	})
	if err != nil {
		logger.Warnw("level watcher stopped", "error", err)
	}
}
