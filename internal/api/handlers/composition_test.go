package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/magda-composer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/store"
)

type fakeComposer struct {
	calls int
	err   error
}

func (f *fakeComposer) Resolve(req models.CompositionRequest) (models.CompositionRequest, error) {
	if req.Seed == nil {
		seed := uint64(99)
		req.Seed = &seed
	}
	if req.Bars == 0 {
		req.Bars = 4
	}
	if req.Bars > coordination.MaxBars {
		return req, fmt.Errorf("%w: too long", coordination.ErrInvalidRequest)
	}
	return req, nil
}

func (f *fakeComposer) Compose(_ context.Context, req models.CompositionRequest) (*models.CompositionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.CompositionResult{
		ID:            uuid.New(),
		Seed:          *req.Seed,
		Bars:          req.Bars,
		Key:           "C major",
		TimeSignature: "4/4",
		Tempo:         120,
		Notes: []models.NoteEvent{
			{MidiNoteNumber: 60, Velocity: 90, DurationBeats: 1, Channel: 0},
			{MidiNoteNumber: 36, Velocity: 100, DurationBeats: 0.25, Channel: models.PercussionChannel},
		},
	}, nil
}

type fixture struct {
	router   *gin.Engine
	composer *fakeComposer
	store    *store.MemoryStore
	handler  *CompositionHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{composer: &fakeComposer{}, store: store.NewMemoryStore()}
	handler, err := NewCompositionHandler(f.composer, f.store, 8, nil)
	require.NoError(t, err)
	f.handler = handler

	f.router = gin.New()
	v1 := f.router.Group("/api/v1", middleware.NoAuth())
	v1.POST("/compositions", handler.Compose)
	v1.GET("/compositions", handler.List)
	v1.GET("/compositions/:id", handler.Get)
	return f
}

func (f *fixture) do(method, path, body, owner string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestComposeStoresAndCaches(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/compositions", `{"seed": 7, "bars": 8}`, "alice")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "miss", w.Header().Get(cacheHeader))

	var result models.CompositionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, uint64(7), result.Seed)
	assert.Equal(t, 8, result.Bars)

	rec, err := f.store.Get(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.Owner)
	assert.Equal(t, 1, rec.NoteCount)
	assert.Equal(t, 1, rec.HitCount)

	w = f.do(http.MethodPost, "/api/v1/compositions", `{"seed": 7, "bars": 8}`, "alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hit", w.Header().Get(cacheHeader))
	assert.Equal(t, 1, f.composer.calls)
	assert.Equal(t, 1, f.handler.CacheLen())

	var cached models.CompositionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cached))
	assert.Equal(t, result.ID, cached.ID)
}

func TestComposeWithEmptyBody(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/compositions", "", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result models.CompositionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, uint64(99), result.Seed)
	assert.Equal(t, 4, result.Bars)
}

func TestComposeErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"malformed json", `{"seed": `, nil, http.StatusBadRequest},
		{"negative seed", `{"seed": -1}`, nil, http.StatusBadRequest},
		{"too many bars", `{"bars": 100000}`, nil, http.StatusBadRequest},
		{"rejected by composer", `{}`, fmt.Errorf("compose: %w", coordination.ErrInvalidRequest), http.StatusBadRequest},
		{"timeout", `{}`, fmt.Errorf("compose: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"engine failure", `{}`, errors.New("renderer exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.composer.err = tt.err

			w := f.do(http.MethodPost, "/api/v1/compositions", tt.body, "")
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "error")
			assert.Equal(t, 0, f.handler.CacheLen())
		})
	}
}

func TestGetComposition(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/compositions", `{"seed": 3}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var result models.CompositionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	tests := []struct {
		name     string
		id       string
		wantCode int
	}{
		{"stored", result.ID.String(), http.StatusOK},
		{"unknown", uuid.New().String(), http.StatusNotFound},
		{"malformed", "not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodGet, "/api/v1/compositions/"+tt.id, "", "")
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}

	w = f.do(http.MethodGet, "/api/v1/compositions/"+result.ID.String(), "", "")
	var rec models.CompositionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, uint64(3), rec.SeedValue())
	assert.Equal(t, 4, rec.Bars)
}

func TestListCompositionsByOwner(t *testing.T) {
	f := newFixture(t)

	for i, owner := range []string{"alice", "bob", "alice", ""} {
		w := f.do(http.MethodPost, "/api/v1/compositions", fmt.Sprintf(`{"seed": %d}`, i), owner)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	tests := []struct {
		name     string
		query    string
		owner    string
		wantCode int
		wantLen  int
	}{
		{"own records", "", "alice", http.StatusOK, 2},
		{"limited", "?limit=1", "alice", http.StatusOK, 1},
		{"other owner", "", "bob", http.StatusOK, 1},
		{"nobody", "", "carol", http.StatusOK, 0},
		{"anonymous sees only anonymous", "", "", http.StatusOK, 1},
		{"bad limit", "?limit=zero", "alice", http.StatusBadRequest, 0},
		{"limit too large", "?limit=500", "alice", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodGet, "/api/v1/compositions"+tt.query, "", tt.owner)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var body struct {
				Compositions []models.CompositionRecord `json:"compositions"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Len(t, body.Compositions, tt.wantLen)
		})
	}
}
