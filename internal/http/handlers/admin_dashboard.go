// Package handlers holds the HTTP endpoints that sit outside the chat
// channel: the admin dashboard and the calendar download.
package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/transport/webchat"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

const eventLatencyMetric = "bot_event_duration_seconds"

// Dashboard is the admin overview payload.
type Dashboard struct {
	Appointments AppointmentTotals `json:"appointments"`
	ByDoctor     []DoctorCount     `json:"by_doctor"`
	Users        int               `json:"users"`
	EventLatency LatencySnapshot   `json:"event_latency"`
}

type AppointmentTotals struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Deleted   int `json:"deleted"`
	Completed int `json:"completed"`
}

// DoctorCount is the number of active bookings held by one doctor.
type DoctorCount struct {
	Doctor string `json:"doctor"`
	Count  int    `json:"count"`
}

// LatencySnapshot summarizes the event duration histogram.
type LatencySnapshot struct {
	Total   int64           `json:"total"`
	P95Ms   float64         `json:"p95_ms"`
	Buckets []LatencyBucket `json:"buckets,omitempty"`
}

type LatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Count     int64   `json:"count"`
}

// DashboardHandler serves booking stats plus a latency snapshot from
// the prometheus gatherer.
type DashboardHandler struct {
	store    *store.Store
	gatherer prometheus.Gatherer
	secret   string
	isAdmin  func(int64) bool
	logger   *logging.Logger
}

func NewDashboardHandler(st *store.Store, gatherer prometheus.Gatherer, secret string, isAdmin func(int64) bool, logger *logging.Logger) *DashboardHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{
		store:    st,
		gatherer: gatherer,
		secret:   secret,
		isAdmin:  isAdmin,
		logger:   logger.Component("dashboard"),
	}
}

// GetDashboard returns the admin overview.
// GET /admin/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	identity, err := webchat.IdentifyRequest(h.secret, r)
	if err != nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if !h.isAdmin(identity.UserID) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}

	records := h.store.Records()
	totals := AppointmentTotals{Total: len(records)}
	byDoctor := map[string]int{}
	for _, apt := range records {
		switch apt.Status {
		case store.StatusActive:
			totals.Active++
			byDoctor[apt.Doctor]++
		case store.StatusDeleted:
			totals.Deleted++
		case store.StatusCompleted:
			totals.Completed++
		}
	}

	doctors := make([]DoctorCount, 0, len(byDoctor))
	for doctor, count := range byDoctor {
		doctors = append(doctors, DoctorCount{Doctor: doctor, Count: count})
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].Doctor < doctors[j].Doctor })

	resp := Dashboard{
		Appointments: totals,
		ByDoctor:     doctors,
		Users:        len(h.store.Users()),
		EventLatency: snapshotEventLatency(h.gatherer),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// snapshotEventLatency aggregates the event duration histogram across
// all event kinds.
func snapshotEventLatency(gatherer prometheus.Gatherer) LatencySnapshot {
	mfs, err := gatherer.Gather()
	if err != nil {
		return LatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == eventLatencyMetric {
			family = mf
			break
		}
	}
	if family == nil {
		return LatencySnapshot{}
	}

	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	for _, metric := range family.Metric {
		hist := metric.GetHistogram()
		if hist == nil {
			continue
		}
		sampleCount += hist.GetSampleCount()
		for _, b := range hist.Bucket {
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return LatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]LatencyBucket, 0, len(uppers))
	var prev uint64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		count := int64(cum)
		if cum >= prev {
			count = int64(cum - prev)
		}
		prev = cum
		if math.IsInf(upper, 1) {
			continue
		}
		buckets = append(buckets, LatencyBucket{LeSeconds: upper, Count: count})
	}

	return LatencySnapshot{
		Total:   int64(sampleCount),
		P95Ms:   histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000,
		Buckets: buckets,
	}
}

// histogramQuantile interpolates a quantile from cumulative bucket
// counts, the way promql's histogram_quantile does.
func histogramQuantile(q float64, total uint64, uppers []float64, cumulative map[float64]uint64) float64 {
	rank := q * float64(total)
	var prevUpper float64
	var prevCum uint64
	for _, upper := range uppers {
		cum := cumulative[upper]
		if float64(cum) >= rank {
			if math.IsInf(upper, 1) {
				return prevUpper
			}
			bucketCount := cum - prevCum
			if bucketCount == 0 {
				return upper
			}
			fraction := (rank - float64(prevCum)) / float64(bucketCount)
			return prevUpper + (upper-prevUpper)*fraction
		}
		if !math.IsInf(upper, 1) {
			prevUpper = upper
		}
		prevCum = cum
	}
	return prevUpper
}
