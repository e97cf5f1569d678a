// Package store keeps composition records, in postgres through gorm or in memory.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// ErrNotFound is returned for unknown composition ids
var ErrNotFound = errors.New("composition not found")

// DefaultListLimit bounds List when no limit is given
const DefaultListLimit = 50

// Stats aggregates the stored compositions
type Stats struct {
	TotalCompositions int64   `json:"total_compositions"`
	TotalNotes        int64   `json:"total_notes"`
	TotalHits         int64   `json:"total_hits"`
	AvgBars           float64 `json:"avg_bars"`
	WithUnresolved    int64   `json:"with_unresolved"`
}

// CompositionStore persists composition records
type CompositionStore interface {
	Save(ctx context.Context, rec *models.CompositionRecord) error
	Get(ctx context.Context, id uuid.UUID) (*models.CompositionRecord, error)
	// List returns the owner's newest records first. Owners match exactly, so an
	// empty owner only sees records saved without one.
	List(ctx context.Context, owner string, limit int) ([]models.CompositionRecord, error)
	Stats(ctx context.Context) (*Stats, error)
	Ping(ctx context.Context) error
}

// GormStore stores records in a SQL database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a connected database
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Save inserts the record
func (s *GormStore) Save(ctx context.Context, rec *models.CompositionRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// Get loads one record
func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (*models.CompositionRecord, error) {
	var rec models.CompositionRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List loads the owner's newest records
func (s *GormStore) List(ctx context.Context, owner string, limit int) ([]models.CompositionRecord, error) {
	query := s.db.WithContext(ctx).Model(&models.CompositionRecord{}).Where("owner = ?", owner)

	var records []models.CompositionRecord
	if err := query.Order("created_at DESC").Limit(clampLimit(limit)).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Stats aggregates every stored record
func (s *GormStore) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := s.db.WithContext(ctx).Model(&models.CompositionRecord{}).Select(
		"COUNT(*) as total_compositions",
		"COALESCE(SUM(note_count), 0) as total_notes",
		"COALESCE(SUM(hit_count), 0) as total_hits",
		"COALESCE(AVG(bars), 0) as avg_bars",
		"COUNT(*) FILTER (WHERE unresolved_count > 0) as with_unresolved",
	).Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// Ping checks the database connection
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// MemoryStore keeps records in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]models.CompositionRecord
	now     func() time.Time
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[uuid.UUID]models.CompositionRecord{}, now: time.Now}
}

// Save stores a copy of the record, stamping CreatedAt when unset
func (s *MemoryStore) Save(_ context.Context, rec *models.CompositionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if _, exists := s.records[rec.ID]; exists {
		return errors.New("duplicate composition id " + rec.ID.String())
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.records[rec.ID] = *rec
	return nil
}

// Get returns a copy of the record
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.CompositionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// List returns the newest records first
func (s *MemoryStore) List(_ context.Context, owner string, limit int) ([]models.CompositionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.CompositionRecord, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Owner == owner {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID.String() < records[j].ID.String()
	})
	if n := clampLimit(limit); len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// Stats aggregates every stored record
func (s *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	bars := 0
	for _, rec := range s.records {
		stats.TotalCompositions++
		stats.TotalNotes += int64(rec.NoteCount)
		stats.TotalHits += int64(rec.HitCount)
		bars += rec.Bars
		if rec.UnresolvedCount > 0 {
			stats.WithUnresolved++
		}
	}
	if stats.TotalCompositions > 0 {
		stats.AvgBars = float64(bars) / float64(stats.TotalCompositions)
	}
	return &stats, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
