package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	generationClaimedTotal   atomic.Uint64
	generationReadyTotal     atomic.Uint64
	generationFailedTotal    atomic.Uint64
	generationSkippedTotal   atomic.Uint64
	generationFallbackTotal  atomic.Uint64
	notificationUpsertsTotal atomic.Uint64

	jobsReceivedTotal             atomic.Uint64
	jobsCompletedTotal            atomic.Uint64
	jobsFailedTotal               atomic.Uint64
	jobsDeletedUnrecoverableTotal atomic.Uint64

	generationDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncGenerationClaimed increments the claimed counter.
func IncGenerationClaimed() {
	generationClaimedTotal.Add(1)
}

// IncGenerationReady increments the ready counter.
func IncGenerationReady() {
	generationReadyTotal.Add(1)
}

// IncGenerationFailed increments the failed counter.
func IncGenerationFailed() {
	generationFailedTotal.Add(1)
}

// IncGenerationSkipped increments the idempotent-skip counter.
func IncGenerationSkipped() {
	generationSkippedTotal.Add(1)
}

// IncGenerationFallback increments the template-fallback counter.
func IncGenerationFallback() {
	generationFallbackTotal.Add(1)
}

// IncNotificationUpserts increments the notification upsert counter.
func IncNotificationUpserts() {
	notificationUpsertsTotal.Add(1)
}

// IncJobsReceived increments the queue jobs received counter.
func IncJobsReceived() {
	jobsReceivedTotal.Add(1)
}

// IncJobsCompleted increments the queue jobs completed counter.
func IncJobsCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobsFailed increments the queue jobs failed counter.
func IncJobsFailed() {
	jobsFailedTotal.Add(1)
}

// IncJobsDeletedUnrecoverable increments the counter for malformed queue
// messages deleted without processing.
func IncJobsDeletedUnrecoverable() {
	jobsDeletedUnrecoverableTotal.Add(1)
}

// ObserveGenerationDurationMs records a generation duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "couples_generation_claimed_total", "Total analysis generations claimed", generationClaimedTotal.Load())
	writeCounter(&buf, "couples_generation_ready_total", "Total analysis generations completed", generationReadyTotal.Load())
	writeCounter(&buf, "couples_generation_failed_total", "Total analysis generations failed", generationFailedTotal.Load())
	writeCounter(&buf, "couples_generation_skipped_total", "Total coordinator no-op invocations", generationSkippedTotal.Load())
	writeCounter(&buf, "couples_generation_fallback_total", "Total analyses built from the template fallback", generationFallbackTotal.Load())
	writeCounter(&buf, "couples_notification_upserts_total", "Total notification upserts", notificationUpsertsTotal.Load())
	writeCounter(&buf, "couples_jobs_received_total", "Total queue jobs received", jobsReceivedTotal.Load())
	writeCounter(&buf, "couples_jobs_completed_total", "Total queue jobs completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "couples_jobs_failed_total", "Total queue jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "couples_jobs_deleted_unrecoverable_total", "Total malformed queue jobs deleted", jobsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "couples_generation_duration_ms", "Analysis generation duration in milliseconds", generationDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
