package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/betterfly/betterfly/internal/shared"
)

//go:embed catalog.yaml
var builtinCatalog []byte

type catalogFile struct {
	Categories []Category `yaml:"categories"`
	Sessions   []struct {
		ID          string  `yaml:"id"`
		Title       string  `yaml:"title"`
		Description string  `yaml:"description"`
		Duration    float64 `yaml:"duration"`
		Category    string  `yaml:"category"`
		Audio       string  `yaml:"audio"`
	} `yaml:"sessions"`
}

type snapshot struct {
	categories []Category
	sessions   []Session
	byID       map[string]Session
}

// Static is the read-only session catalog. The YAML source is parsed on
// first use; concurrent first callers share one parse.
type Static struct {
	source []byte
	group  singleflight.Group

	mu     sync.RWMutex
	loaded *snapshot
}

// NewStatic returns the catalog embedded in the binary.
func NewStatic() *Static {
	return &Static{source: builtinCatalog}
}

// NewStaticFromYAML returns a catalog parsed from source.
func NewStaticFromYAML(source []byte) *Static {
	return &Static{source: source}
}

// Categories lists categories in declaration order.
func (s *Static) Categories(ctx context.Context) ([]Category, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Category(nil), snap.categories...), nil
}

// Sessions lists sessions in declaration order.
func (s *Static) Sessions(ctx context.Context) ([]Session, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Session(nil), snap.sessions...), nil
}

// Session returns the session with id or shared.ErrNotFound.
func (s *Static) Session(ctx context.Context, id string) (Session, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return Session{}, err
	}
	session, ok := snap.byID[id]
	if !ok {
		return Session{}, shared.ErrNotFound
	}
	return session, nil
}

func (s *Static) load(ctx context.Context) (*snapshot, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded != nil {
		return loaded, nil
	}
	resultChan := s.group.DoChan("catalog", func() (interface{}, error) {
		snap, err := parseCatalog(s.source)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.loaded = snap
		s.mu.Unlock()
		return snap, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*snapshot), nil
	}
}

func parseCatalog(source []byte) (*snapshot, error) {
	var file catalogFile
	if err := yaml.Unmarshal(source, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	categories := make(map[string]Category, len(file.Categories))
	for _, c := range file.Categories {
		if c.ID == "" {
			return nil, fmt.Errorf("parse catalog: category without id")
		}
		categories[c.ID] = c
	}
	snap := &snapshot{
		categories: file.Categories,
		sessions:   make([]Session, 0, len(file.Sessions)),
		byID:       make(map[string]Session, len(file.Sessions)),
	}
	for _, raw := range file.Sessions {
		category, ok := categories[raw.Category]
		if !ok {
			return nil, fmt.Errorf("parse catalog: session %q references unknown category %q", raw.ID, raw.Category)
		}
		if _, dup := snap.byID[raw.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate session %q", raw.ID)
		}
		session := Session{
			ID:          raw.ID,
			Title:       raw.Title,
			Description: raw.Description,
			Duration:    raw.Duration,
			Category:    category,
			Audio:       raw.Audio,
		}
		snap.sessions = append(snap.sessions, session)
		snap.byID[session.ID] = session
	}
	return snap, nil
}
