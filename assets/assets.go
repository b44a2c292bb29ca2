package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"go.uber.org/zap"

	"github.com/automoto/battleboxes/logging"
	"github.com/automoto/battleboxes/shared/collisionmap"
	"github.com/automoto/battleboxes/shared/leveldata"
)

var (
	//go:embed all:levels
	assetFS embed.FS
)

// ErrUnknownLevel is returned for a level name that was never loaded.
var ErrUnknownLevel = errors.New("unknown level")

// Embedded returns the levels compiled into the binary, rooted so that the
// level directory is "levels".
func Embedded() fs.FS {
	return assetFS
}

// LevelLoader owns the collision maps of every level in a directory. Maps
// are immutable; a reload swaps in a freshly built one.
type LevelLoader struct {
	fsys fs.FS
	dir  string
	opts leveldata.Options
	log  *zap.SugaredLogger

	mu    sync.RWMutex
	maps  map[string]*collisionmap.Map
	names []string
}

func NewLevelLoader(fsys fs.FS, dir string, opts leveldata.Options) *LevelLoader {
	return &LevelLoader{
		fsys: fsys,
		dir:  dir,
		opts: opts,
		log:  logging.Named("level"),
		maps: make(map[string]*collisionmap.Map),
	}
}

// LoadAll parses every .tmx file in the directory. Any malformed level
// fails the whole load.
func (l *LevelLoader) LoadAll() error {
	levels, names, err := leveldata.LoadAllLevels(l.fsys, l.dir, l.opts)
	if err != nil {
		return err
	}

	maps := make(map[string]*collisionmap.Map, len(levels))
	for name, data := range levels {
		m, err := collisionmap.New(data)
		if err != nil {
			return fmt.Errorf("level %s: %w", name, err)
		}
		maps[name] = m
		l.log.Debugw("level loaded", "name", name, "obstacles", len(m.Obstacles()), "width", m.Width(), "height", m.Height())
	}

	l.mu.Lock()
	l.maps = maps
	l.names = names
	l.mu.Unlock()
	return nil
}

// Reload re-reads a single level by name and replaces it wholesale.
func (l *LevelLoader) Reload(name string) (*collisionmap.Map, error) {
	data, err := leveldata.LoadCollisionData(l.fsys, path.Join(l.dir, name+".tmx"), l.opts)
	if err != nil {
		return nil, err
	}
	m, err := collisionmap.New(data)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", name, err)
	}

	l.mu.Lock()
	if _, ok := l.maps[name]; !ok {
		l.names = append(l.names, name)
	}
	l.maps[name] = m
	l.mu.Unlock()

	l.log.Infow("level reloaded", "name", name, "obstacles", len(m.Obstacles()))
	return m, nil
}

// Map returns the collision map for a level name.
func (l *LevelLoader) Map(name string) (*collisionmap.Map, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.maps[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownLevel)
	}
	return m, nil
}

// Names lists the loaded levels, sorted.
func (l *LevelLoader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.names...)
}
