// Package processor orchestrates search batches: it searches PubMed,
// retrieves and reconciles each matching article, and persists metadata,
// summaries, and PDFs through the blob store.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-harvester/internal/domain"
	"github.com/helixir/pubmed-harvester/internal/entrez/pubmed"
	"github.com/helixir/pubmed-harvester/internal/observability"
	"github.com/helixir/pubmed-harvester/internal/pdf"
	"github.com/helixir/pubmed-harvester/internal/storage"
)

const batchIDLayout = "20060102_150405"

// Fetcher is the upstream surface the processor consumes. *pubmed.Client
// satisfies it.
type Fetcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]*pubmed.SearchRecord, error)
	FetchCitationXML(ctx context.Context, pmid string) ([]byte, error)
	FetchSummary(ctx context.Context, pmid string) (*pubmed.SummaryResult, error)
	FetchPDF(ctx context.Context, pmid string) (*pdf.DownloadResult, error)
}

// BlobStore persists batch artifacts. *storage.LocalStore satisfies it.
type BlobStore interface {
	Save(content []byte, relPath string) bool
}

// Config holds processor options.
type Config struct {
	// MaxResults caps articles per search when the caller passes a
	// non-positive value.
	MaxResults int

	// DownloadPDFs enables best-effort PDF retrieval per article.
	DownloadPDFs bool

	// FetchSummaries enables best-effort summary retrieval per article.
	FetchSummaries bool
}

// BatchSummary is the aggregate outcome of one search batch. It is
// persisted alongside the per-article metadata and returned to the caller.
type BatchSummary struct {
	SearchID              string            `json:"search_id"`
	Query                 string            `json:"query"`
	ProcessedTime         string            `json:"processed_time"`
	TotalArticlesFound    int               `json:"total_articles_found"`
	SuccessfullyProcessed int               `json:"successfully_processed"`
	FailedProcessing      int               `json:"failed_processing"`
	FailedPMIDs           []string          `json:"failed_pmids"`
	Articles              []*domain.Article `json:"articles"`
}

// Processor runs search batches sequentially. Per-article failures are
// counted and recorded but never abort the batch; only a failed search
// aborts.
type Processor struct {
	fetcher Fetcher
	store   BlobStore
	config  Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New creates a Processor.
func New(fetcher Fetcher, store BlobStore, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Processor {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = pubmed.DefaultMaxResults
	}
	return &Processor{
		fetcher: fetcher,
		store:   store,
		config:  cfg,
		logger:  logger.With().Str("component", "processor").Logger(),
		metrics: metrics,
	}
}

// Process runs one search batch. The search result ids are persisted before
// any per-article work, so a crash mid-batch leaves a record of what was
// attempted. A search failure persists an error-tagged summary and returns
// the error; everything after a successful search is best-effort per id.
func (p *Processor) Process(ctx context.Context, query string, maxResults int) (*BatchSummary, error) {
	if maxResults <= 0 {
		maxResults = p.config.MaxResults
	}

	batchID := time.Now().UTC().Format(batchIDLayout)
	runID := uuid.NewString()
	logger := observability.WithRunContext(observability.WithBatchContext(p.logger, batchID, query), runID)
	ctx = observability.WithRunID(observability.WithBatch(ctx, batchID, query), runID)

	started := time.Now()
	p.metrics.RecordSearchStarted()
	logger.Info().Int("max_results", maxResults).Msg("starting search batch")

	records, err := p.fetcher.Search(ctx, query, maxResults)
	if err != nil {
		p.metrics.RecordSearchFailed(time.Since(started).Seconds())
		p.saveErrorSummary(logger, batchID, query, err)
		return nil, fmt.Errorf("search for %q failed: %w", query, err)
	}

	pmids := collectPMIDs(records)
	p.saveSearchMetadata(logger, batchID, query, maxResults, pmids)
	logger.Info().Int("results_found", len(pmids)).Msg("search complete")

	summary := &BatchSummary{
		SearchID:           batchID,
		Query:              query,
		TotalArticlesFound: len(pmids),
		FailedPMIDs:        []string{},
		Articles:           []*domain.Article{},
	}

	for _, pmid := range pmids {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Msg("batch interrupted")
			break
		}

		article := p.processArticle(ctx, logger, pmid)
		if article == nil {
			summary.FailedProcessing++
			summary.FailedPMIDs = append(summary.FailedPMIDs, pmid)
			p.metrics.RecordArticleFailed()
			continue
		}
		summary.SuccessfullyProcessed++
		summary.Articles = append(summary.Articles, article)
		p.metrics.RecordArticleProcessed()
	}

	summary.ProcessedTime = time.Now().UTC().Format(time.RFC3339)
	p.saveBatchSummary(logger, batchID, summary)
	p.metrics.RecordSearchCompleted(len(pmids), time.Since(started).Seconds())
	logger.Info().
		Int("processed", summary.SuccessfullyProcessed).
		Int("failed", summary.FailedProcessing).
		Msg("batch complete")

	return summary, nil
}

// processArticle runs the per-id state machine: the citation path first,
// the search fallback second. A nil return means both paths came up empty.
func (p *Processor) processArticle(ctx context.Context, logger zerolog.Logger, pmid string) *domain.Article {
	logger = observability.WithArticleContext(logger, pmid)

	article := p.fetchArticle(ctx, logger, pmid)
	if article == nil {
		return nil
	}

	if !p.saveArticleMetadata(logger, pmid, article) {
		logger.Error().Msg("failed to persist article metadata")
		return nil
	}

	if p.config.FetchSummaries {
		p.saveArticleSummary(ctx, logger, pmid)
	}
	if p.config.DownloadPDFs {
		p.saveArticlePDF(ctx, logger, pmid)
	}
	return article
}

func (p *Processor) fetchArticle(ctx context.Context, logger zerolog.Logger, pmid string) *domain.Article {
	doc, err := p.fetcher.FetchCitationXML(ctx, pmid)
	if err == nil {
		rec, parseErr := pubmed.ParseCitation(doc)
		if parseErr == nil {
			return pubmed.ArticleFromCitation(rec)
		}
		err = parseErr
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Warn().Msg("citation not found, trying search fallback")
	case errors.Is(err, domain.ErrInvalidStructure):
		logger.Warn().Err(err).Msg("citation document malformed, trying search fallback")
	default:
		logger.Warn().Err(err).Msg("citation fetch failed, trying search fallback")
	}

	records, err := p.fetcher.Search(ctx, fmt.Sprintf("%s[pmid]", pmid), 1)
	if err != nil || len(records) == 0 {
		if err != nil {
			logger.Error().Err(err).Msg("search fallback failed")
		}
		return nil
	}

	p.metrics.RecordArticleFallback()
	return pubmed.ArticleFromSearchRecord(records[0])
}

func (p *Processor) saveArticleMetadata(logger zerolog.Logger, pmid string, article *domain.Article) bool {
	payload, err := enhanceRecord(article, "xml")
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode article metadata")
		return false
	}
	return p.save(payload, path.Join(storage.XMLMetadataDir, pmid+".json"))
}

func (p *Processor) saveArticleSummary(ctx context.Context, logger zerolog.Logger, pmid string) {
	result, err := p.fetcher.FetchSummary(ctx, pmid)
	if err != nil {
		logger.Debug().Err(err).Msg("summary unavailable")
		return
	}
	payload, err := enhanceRecord(result.Raw, "summary")
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode summary")
		return
	}
	p.save(payload, path.Join(storage.SummaryDir, pmid+".json"))
}

func (p *Processor) saveArticlePDF(ctx context.Context, logger zerolog.Logger, pmid string) {
	result, err := p.fetcher.FetchPDF(ctx, pmid)
	if err != nil {
		p.metrics.RecordPDFDownload(false)
		logger.Debug().Err(err).Msg("pdf unavailable")
		return
	}
	p.metrics.RecordPDFDownload(true)
	p.save(result.Content, path.Join(storage.PDFDir, pmid+".pdf"))
}

func (p *Processor) saveSearchMetadata(logger zerolog.Logger, batchID, query string, maxResults int, pmids []string) {
	metadata := map[string]any{
		"search_id":     batchID,
		"query":         query,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"max_results":   maxResults,
		"results_found": len(pmids),
		"pmids":         pmids,
	}
	payload, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode search metadata")
		return
	}
	p.save(payload, path.Join(storage.SearchResultsDir, batchID+".json"))
}

func (p *Processor) saveBatchSummary(logger zerolog.Logger, batchID string, summary *BatchSummary) {
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode batch summary")
		return
	}
	p.save(payload, path.Join(storage.SearchResultsDir, batchID+"_summary.json"))
}

func (p *Processor) saveErrorSummary(logger zerolog.Logger, batchID, query string, cause error) {
	payload, err := json.MarshalIndent(map[string]any{
		"error":     cause.Error(),
		"query":     query,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode error summary")
		return
	}
	p.save(payload, path.Join(storage.SearchResultsDir, batchID+"_summary.json"))
}

func (p *Processor) save(content []byte, relPath string) bool {
	ok := p.store.Save(content, relPath)
	p.metrics.RecordStoreSave(ok)
	return ok
}

// enhanceRecord renders a payload as a JSON object with saved_at and
// metadata_type stamped in.
func enhanceRecord(payload any, metadataType string) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to reshape record: %w", err)
	}
	record["saved_at"] = time.Now().UTC().Format(time.RFC3339)
	record["metadata_type"] = metadataType
	return json.MarshalIndent(record, "", "  ")
}

// collectPMIDs extracts the primary PMID of each search record, skipping
// records that carry none.
func collectPMIDs(records []*pubmed.SearchRecord) []string {
	pmids := make([]string, 0, len(records))
	for _, rec := range records {
		if id := rec.PrimaryPMID(); id != "" {
			pmids = append(pmids, id)
		}
	}
	return pmids
}
