//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/store"
)

type fakeReportStore struct {
	reports   []*domain.StoredReport
	lastLimit int
	listErr   error
	pingErr   error
}

func (f *fakeReportStore) AppendReport(_ context.Context, card domain.Scorecard) (*domain.StoredReport, error) {
	r := &domain.StoredReport{ID: int64(len(f.reports) + 1), Scorecard: card, CreatedAt: time.Unix(1700000000, 0).UTC()}
	f.reports = append(f.reports, r)
	return r, nil
}

func (f *fakeReportStore) GetReport(_ context.Context, id int64) (*domain.StoredReport, error) {
	for _, r := range f.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeReportStore) ListReports(_ context.Context, limit int) ([]*domain.StoredReport, error) {
	f.lastLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.StoredReport, 0, len(f.reports))
	for i := len(f.reports) - 1; i >= 0; i-- {
		out = append(out, f.reports[i])
	}
	return out, nil
}

func (f *fakeReportStore) Ping(context.Context) error { return f.pingErr }
func (f *fakeReportStore) Close() error               { return nil }

type fixedCounter int

func (c fixedCounter) Count() int { return int(c) }

func newRouter(reports *fakeReportStore, sessions SessionCounter) http.Handler {
	base := NewHandler(reports, sessions)
	r := chi.NewRouter()
	NewHealthHandler(base, time.Second).RegisterHealth(r)
	NewReportHandler(base).RegisterRoutes(r)
	return r
}

func seededStore(t *testing.T) *fakeReportStore {
	t.Helper()
	s := &fakeReportStore{}
	for _, card := range []domain.Scorecard{
		{Tech: 72, Clarity: 80, Originality: 65, Feedback: "Solid fundamentals."},
		{Tech: 40, Clarity: 55, Originality: 30, Feedback: "Needs depth."},
	} {
		_, err := s.AppendReport(context.Background(), card)
		require.NoError(t, err)
	}
	return s
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "bar", got["foo"])
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusNotFound, "report not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "report not found", got["error"])
}

func TestGetReport(t *testing.T) {
	router := newRouter(seededStore(t), fixedCounter(0))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantTech   int
	}{
		{name: "existing", path: "/api/reports/1", wantStatus: http.StatusOK, wantTech: 72},
		{name: "missing", path: "/api/reports/99", wantStatus: http.StatusNotFound},
		{name: "not a number", path: "/api/reports/abc", wantStatus: http.StatusBadRequest},
		{name: "zero", path: "/api/reports/0", wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			require.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			if tc.wantStatus != http.StatusOK {
				return
			}
			var got struct {
				ID     int64 `json:"id"`
				Scores struct {
					Tech     int    `json:"tech"`
					Feedback string `json:"feedback"`
				} `json:"scores"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, int64(1), got.ID)
			assert.Equal(t, tc.wantTech, got.Scores.Tech)
			assert.Equal(t, "Solid fundamentals.", got.Scores.Feedback)
		})
	}
}

func TestListReports(t *testing.T) {
	s := seededStore(t)
	router := newRouter(s, fixedCounter(0))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports?limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, s.lastLimit, "limit passed to store")

	var got struct {
		Reports []struct {
			ID int64 `json:"id"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Reports, 2)
	assert.Equal(t, int64(2), got.Reports[0].ID, "newest first")
	assert.Equal(t, int64(1), got.Reports[1].ID)
}

func TestListReportsEmptyAndErrors(t *testing.T) {
	t.Run("empty store encodes empty list", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(&fakeReportStore{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "{\"reports\":[]}\n", w.Body.String())
	})

	t.Run("bad limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(&fakeReportStore{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports?limit=-1", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		s := &fakeReportStore{listErr: errors.New("db gone")}
		newRouter(s, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantDB     string
	}{
		{name: "healthy", wantStatus: http.StatusOK, wantDB: "ok"},
		{name: "database down", pingErr: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable, wantDB: "unreachable"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newRouter(&fakeReportStore{pingErr: tc.pingErr}, fixedCounter(3))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			require.Equal(t, tc.wantStatus, w.Code)
			var got struct {
				Database       string `json:"database"`
				ActiveSessions int    `json:"active_sessions"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tc.wantDB, got.Database)
			assert.Equal(t, 3, got.ActiveSessions)
		})
	}
}
