package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the harvester. Metrics are
// organized by subsystem: searches, E-utilities requests, article
// processing, PDF downloads, and blob store writes. All counters and
// histograms are registered via promauto for automatic registration with
// the default Prometheus registry.
type Metrics struct {
	// SearchesStarted counts search batches initiated.
	SearchesStarted prometheus.Counter

	// SearchesCompleted counts search batches that finished, including
	// batches with per-article failures.
	SearchesCompleted prometheus.Counter

	// SearchesFailed counts search batches that aborted before any
	// per-article work.
	SearchesFailed prometheus.Counter

	// ArticlesPerSearch observes the distribution of articles found per search.
	ArticlesPerSearch prometheus.Histogram

	// BatchDuration observes end-to-end batch duration in seconds.
	BatchDuration prometheus.Histogram

	// EntrezRequestsTotal counts requests to E-utilities endpoints, labeled
	// by endpoint (esearch, efetch, esummary, elink).
	EntrezRequestsTotal *prometheus.CounterVec

	// EntrezRequestsFailed counts failed E-utilities requests, labeled by
	// endpoint and error type.
	EntrezRequestsFailed *prometheus.CounterVec

	// ArticlesProcessed counts articles fully processed and persisted.
	ArticlesProcessed prometheus.Counter

	// ArticlesFailed counts articles that failed on both retrieval paths.
	ArticlesFailed prometheus.Counter

	// ArticleFallbacks counts articles recovered through the search
	// fallback after the citation path failed.
	ArticleFallbacks prometheus.Counter

	// PDFDownloadsTotal counts PDF retrievals attempted.
	PDFDownloadsTotal prometheus.Counter

	// PDFDownloadsFailed counts PDF retrievals that failed. PDF failures
	// never fail the owning article.
	PDFDownloadsFailed prometheus.Counter

	// StoreSavesTotal counts blob store writes attempted.
	StoreSavesTotal prometheus.Counter

	// StoreSavesFailed counts blob store writes that failed.
	StoreSavesFailed prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of search batches started",
		}),
		SearchesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of search batches completed",
		}),
		SearchesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of search batches that aborted",
		}),
		ArticlesPerSearch: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "articles_per_search",
			Help:      "Distribution of articles found per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "End-to-end duration of a search batch in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		EntrezRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entrez_requests_total",
			Help:      "Total number of E-utilities API requests",
		}, []string{"endpoint"}),
		EntrezRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entrez_requests_failed_total",
			Help:      "Total number of failed E-utilities API requests",
		}, []string{"endpoint", "error_type"}),
		ArticlesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_processed_total",
			Help:      "Total number of articles processed and persisted",
		}),
		ArticlesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_failed_total",
			Help:      "Total number of articles that failed on both retrieval paths",
		}),
		ArticleFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "article_fallbacks_total",
			Help:      "Total number of articles recovered through the search fallback",
		}),
		PDFDownloadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_downloads_total",
			Help:      "Total number of PDF retrievals attempted",
		}),
		PDFDownloadsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_downloads_failed_total",
			Help:      "Total number of failed PDF retrievals",
		}),
		StoreSavesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_saves_total",
			Help:      "Total number of blob store writes attempted",
		}),
		StoreSavesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_saves_failed_total",
			Help:      "Total number of failed blob store writes",
		}),
	}
}

// RecordSearchStarted increments the searches started counter.
func (m *Metrics) RecordSearchStarted() {
	m.SearchesStarted.Inc()
}

// RecordSearchCompleted records a completed batch with its article count
// and duration.
func (m *Metrics) RecordSearchCompleted(articleCount int, durationSeconds float64) {
	m.SearchesCompleted.Inc()
	m.ArticlesPerSearch.Observe(float64(articleCount))
	m.BatchDuration.Observe(durationSeconds)
}

// RecordSearchFailed records an aborted batch and its duration.
func (m *Metrics) RecordSearchFailed(durationSeconds float64) {
	m.SearchesFailed.Inc()
	m.BatchDuration.Observe(durationSeconds)
}

// RecordEntrezRequest records a request to the given endpoint.
func (m *Metrics) RecordEntrezRequest(endpoint string) {
	m.EntrezRequestsTotal.WithLabelValues(endpoint).Inc()
}

// RecordEntrezRequestFailed records a failed request to the given endpoint.
func (m *Metrics) RecordEntrezRequestFailed(endpoint, errorType string) {
	m.EntrezRequestsFailed.WithLabelValues(endpoint, errorType).Inc()
}

// RecordArticleProcessed increments the processed articles counter.
func (m *Metrics) RecordArticleProcessed() {
	m.ArticlesProcessed.Inc()
}

// RecordArticleFailed increments the failed articles counter.
func (m *Metrics) RecordArticleFailed() {
	m.ArticlesFailed.Inc()
}

// RecordArticleFallback increments the fallback recovery counter.
func (m *Metrics) RecordArticleFallback() {
	m.ArticleFallbacks.Inc()
}

// RecordPDFDownload records a PDF retrieval attempt and its outcome.
func (m *Metrics) RecordPDFDownload(success bool) {
	m.PDFDownloadsTotal.Inc()
	if !success {
		m.PDFDownloadsFailed.Inc()
	}
}

// RecordStoreSave records a blob store write and its outcome.
func (m *Metrics) RecordStoreSave(success bool) {
	m.StoreSavesTotal.Inc()
	if !success {
		m.StoreSavesFailed.Inc()
	}
}
