package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/observability/metrics"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "db.json"), logging.New("error"))
	require.NoError(t, err)
	return st
}

func isAdmin(id int64) bool { return id == 9000 }

func TestDashboardRequiresAdmin(t *testing.T) {
	h := NewDashboardHandler(newTestStore(t), prometheus.NewRegistry(), "", isAdmin, logging.New("error"))

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	h.GetDashboard(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/dashboard?user=100", nil)
	rec = httptest.NewRecorder()
	h.GetDashboard(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardTotals(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.AddUser(ctx, 100, "ivan", "Иван"))

	_, err := st.CreateAppointment(ctx, 100, "Иван Петров", "Терапевт Иванова А.С.", "Консультация", "01.09.2026", "09:00")
	require.NoError(t, err)
	_, err = st.CreateAppointment(ctx, 100, "Иван Петров", "Терапевт Иванова А.С.", "Консультация", "01.09.2026", "10:00")
	require.NoError(t, err)
	id, err := st.CreateAppointment(ctx, 100, "Анна", "Хирург Петров В.И.", "Перевязка", "02.09.2026", "09:00")
	require.NoError(t, err)
	require.NoError(t, st.SoftDelete(ctx, id))

	reg := prometheus.NewRegistry()
	m := metrics.NewBotMetrics(reg)
	m.ObserveEventDuration("text", 0.02)
	m.ObserveEventDuration("choice", 0.08)

	h := NewDashboardHandler(st, reg, "", isAdmin, logging.New("error"))
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard?user=9000", nil)
	rec := httptest.NewRecorder()
	h.GetDashboard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 3, resp.Appointments.Total)
	assert.Equal(t, 2, resp.Appointments.Active)
	assert.Equal(t, 1, resp.Appointments.Deleted)
	assert.Equal(t, 1, resp.Users)

	require.Len(t, resp.ByDoctor, 1, "deleted bookings do not count per doctor")
	assert.Equal(t, "Терапевт Иванова А.С.", resp.ByDoctor[0].Doctor)
	assert.Equal(t, 2, resp.ByDoctor[0].Count)

	assert.Equal(t, int64(2), resp.EventLatency.Total)
	assert.Greater(t, resp.EventLatency.P95Ms, 0.0)
	assert.NotEmpty(t, resp.EventLatency.Buckets)
}

func TestDashboardEmptyGatherer(t *testing.T) {
	h := NewDashboardHandler(newTestStore(t), prometheus.NewRegistry(), "", isAdmin, logging.New("error"))

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard?user=9000", nil)
	rec := httptest.NewRecorder()
	h.GetDashboard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.EventLatency.Total)
}
