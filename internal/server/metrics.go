package server

import "sync"

// Metrics holds application counters. A mutex-guarded struct is plenty
// for a single-process LAN tool.
type Metrics struct {
	mu sync.RWMutex

	// Session lifecycle
	sessionsCreated int64
	sessionsEnded   int64

	// Transfer metrics
	uploadsTotal       int64
	uploadBytesTotal   int64
	uploadErrorsTotal  int64
	downloadsTotal     int64
	downloadBytesTotal int64
	deliveryConflicts  int64

	// System metrics
	requestsTotal    int64
	requestErrors4xx int64
	requestErrors5xx int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	return globalMetrics
}

func (m *Metrics) RecordSessionCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsCreated++
}

func (m *Metrics) RecordSessionEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsEnded++
}

func (m *Metrics) RecordUpload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
	m.uploadBytesTotal += bytes
}

func (m *Metrics) RecordUploadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErrorsTotal++
}

func (m *Metrics) RecordDownload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadsTotal++
	m.downloadBytesTotal += bytes
}

// RecordDeliveryConflict counts a delivery attempt that lost the
// exclusivity race or targeted an already-consumed file.
func (m *Metrics) RecordDeliveryConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveryConflicts++
}

func (m *Metrics) RecordRequest(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++
	switch {
	case status >= 500:
		m.requestErrors5xx++
	case status >= 400:
		m.requestErrors4xx++
	}
}

// Snapshot returns a copy of all counters for the metrics endpoint.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int64{
		"sessions_created":     m.sessionsCreated,
		"sessions_ended":       m.sessionsEnded,
		"uploads_total":        m.uploadsTotal,
		"upload_bytes_total":   m.uploadBytesTotal,
		"upload_errors_total":  m.uploadErrorsTotal,
		"downloads_total":      m.downloadsTotal,
		"download_bytes_total": m.downloadBytesTotal,
		"delivery_conflicts":   m.deliveryConflicts,
		"requests_total":       m.requestsTotal,
		"request_errors_4xx":   m.requestErrors4xx,
		"request_errors_5xx":   m.requestErrors5xx,
	}
}
