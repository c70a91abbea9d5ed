package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/mirlink/pkg/protocol"
	"github.com/ZentaChain/mirlink/pkg/storage"
)

type fixedSessions int

func (n fixedSessions) SessionCount() int { return int(n) }

type brokenJournal struct{}

var errBroken = errors.New("disk on fire")

func (brokenJournal) Recent(int) ([]storage.Frame, error)            { return nil, errBroken }
func (brokenJournal) Stats() (*storage.Stats, error)                 { return nil, errBroken }
func (brokenJournal) Hourly(time.Time) ([]storage.HourBucket, error) { return nil, errBroken }

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func testJournal(t *testing.T) *storage.Journal {
	t.Helper()
	j, err := storage.Open(filepath.Join(t.TempDir(), "journal.db"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestHealth(t *testing.T) {
	s := NewServer(Options{Sessions: fixedSessions(3)}, nil)

	w := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 3, resp.Sessions)
	assert.False(t, resp.Journal)
	assert.Equal(t, protocol.Fingerprint()[:8], resp.Fingerprint)
}

func TestRegistryListing(t *testing.T) {
	s := NewServer(Options{}, nil)

	w := get(t, s, "/api/v1/registry")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[RegistryResponse](t, w)
	assert.Equal(t, protocol.Fingerprint(), resp.Fingerprint)
	assert.Equal(t, 16, resp.Count)
	require.Len(t, resp.Entries, 16)

	assert.Equal(t, EntryView{Code: 0, Name: "SM_NONE", Class: "Empty", ClassID: 0, Size: 0}, resp.Entries[0])
	assert.Equal(t, EntryView{Code: 1, Name: "SM_PING", Class: "FixedPlain", ClassID: 2, Size: 4}, resp.Entries[1])
	assert.True(t, resp.Entries[2].Compressed, "SM_LOGINOK is compressed")
}

func TestRegistryLookup(t *testing.T) {
	s := NewServer(Options{}, nil)

	tests := []struct {
		path       string
		code       uint8
		registered bool
		name       string
	}{
		{"/api/v1/registry/1", 1, true, "SM_PING"},
		{"/api/v1/registry/0x10", 16, true, "SM_GOLD"},
		{"/api/v1/registry/0X05", 5, true, "SM_CORECORD"},
		{"/api/v1/registry/12", 12, false, "SM_NONE"},
		{"/api/v1/registry/0xff", 255, false, "SM_NONE"},
		{"/api/v1/registry/010", 10, true, "SM_SHOWDROPITEM"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, s, tt.path)
			require.Equal(t, http.StatusOK, w.Code)

			resp := decode[LookupResponse](t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.registered, resp.Registered)
			assert.Equal(t, tt.name, resp.Resolved.Name)
		})
	}
}

func TestRegistryLookupInvalid(t *testing.T) {
	s := NewServer(Options{}, nil)

	for _, code := range []string{"256", "-1", "0x100", "ping", "0x"} {
		t.Run(code, func(t *testing.T) {
			w := get(t, s, "/api/v1/registry/"+code)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestJournalDisabled(t *testing.T) {
	s := NewServer(Options{}, nil)

	for _, path := range []string{"/api/v1/journal/recent", "/api/v1/journal/stats", "/api/v1/journal/hourly"} {
		w := get(t, s, path)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestJournalEndpoints(t *testing.T) {
	j := testJournal(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, j.Record("in", protocol.NewMessage(&protocol.Ping{Tick: uint32(i)})))
	}
	require.NoError(t, j.Record("out", protocol.NewMessage(&protocol.Gold{Gold: 10})))

	s := NewServer(Options{Journal: j}, nil)

	t.Run("Recent", func(t *testing.T) {
		w := get(t, s, "/api/v1/journal/recent?limit=2")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[RecentResponse](t, w)
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, "SM_GOLD", resp.Frames[0].Name)
	})

	t.Run("RecentBadLimit", func(t *testing.T) {
		w := get(t, s, "/api/v1/journal/recent?limit=zero")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Stats", func(t *testing.T) {
		w := get(t, s, "/api/v1/journal/stats")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[storage.Stats](t, w)
		assert.Equal(t, int64(5), resp.Total)
		assert.Len(t, resp.ByKind, 2)
	})

	t.Run("Hourly", func(t *testing.T) {
		w := get(t, s, "/api/v1/journal/hourly?hours=2")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[HourlyResponse](t, w)
		var total int64
		for _, b := range resp.Buckets {
			total += b.Messages
		}
		assert.Equal(t, int64(5), total)
	})

	t.Run("HourlyBadRange", func(t *testing.T) {
		w := get(t, s, "/api/v1/journal/hourly?hours=9999")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestJournalErrors(t *testing.T) {
	s := NewServer(Options{Journal: brokenJournal{}}, nil)

	w := get(t, s, "/api/v1/journal/stats")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "disk on fire")
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(Options{}, nil)

	w := get(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestCORS(t *testing.T) {
	config := DefaultConfig()
	config.EnableCORS = true
	s := NewServer(Options{}, config)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/registry", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	config := DefaultConfig()
	config.RateLimit = 2
	s := NewServer(Options{}, config)

	assert.Equal(t, http.StatusOK, get(t, s, "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/health").Code)

	w := get(t, s, "/health")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "Maximum 2 requests"))
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}
