package attribution

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/skylite-app/skylite/internal/models"
	"go.uber.org/zap"
)

// Sources lists the provider ids that have an attribution file.
var Sources = []string{models.SourceAccuWeather, models.SourceOpenWeather}

// Store keeps the image credits of each provider in memory. Files live at
// <dir>/<source>_attributions.json.
type Store struct {
	dir    string
	logger *zap.Logger

	mu       sync.RWMutex
	entries  map[string][]models.Attribution
	loadedAt time.Time
}

func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		dir:     dir,
		logger:  logger,
		entries: make(map[string][]models.Attribution),
	}
	s.Reload()
	return s
}

func (s *Store) path(source string) string {
	return filepath.Join(s.dir, source+"_attributions.json")
}

// Load reads the attribution file of source. A missing or invalid file
// yields an empty list.
func (s *Store) Load(source string) []models.Attribution {
	data, err := os.ReadFile(s.path(source))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Attribution file not found", zap.String("source", source), zap.String("path", s.path(source)))
		} else {
			s.logger.Error("Failed to read attribution file", zap.String("source", source), zap.Error(err))
		}
		return []models.Attribution{}
	}

	var list []models.Attribution
	if err := json.Unmarshal(data, &list); err != nil {
		s.logger.Error("Invalid attribution file",
			zap.String("source", source),
			zap.Error(fmt.Errorf("decoding %s: %w", s.path(source), err)))
		return []models.Attribution{}
	}

	if list == nil {
		list = []models.Attribution{}
	}
	return list
}

// Reload re-reads every known source and returns the number of entries loaded.
func (s *Store) Reload() int {
	loaded := make(map[string][]models.Attribution, len(Sources))
	total := 0
	for _, source := range Sources {
		loaded[source] = s.Load(source)
		total += len(loaded[source])
	}

	s.mu.Lock()
	s.entries = loaded
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Debug("Attributions loaded", zap.Int("entries", total))
	return total
}

// Get returns a copy of the cached attributions of source.
func (s *Store) Get(source string) []models.Attribution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.entries[source]
	out := make([]models.Attribution, len(list))
	copy(out, list)
	return out
}

func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
