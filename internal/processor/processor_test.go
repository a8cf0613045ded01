package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/pubmed-harvester/internal/domain"
	"github.com/helixir/pubmed-harvester/internal/entrez/pubmed"
	"github.com/helixir/pubmed-harvester/internal/observability"
	"github.com/helixir/pubmed-harvester/internal/pdf"
	"github.com/helixir/pubmed-harvester/internal/storage"
)

type fakeFetcher struct {
	searchFn   func(ctx context.Context, query string, maxResults int) ([]*pubmed.SearchRecord, error)
	citationFn func(ctx context.Context, pmid string) ([]byte, error)
	summaryFn  func(ctx context.Context, pmid string) (*pubmed.SummaryResult, error)
	pdfFn      func(ctx context.Context, pmid string) (*pdf.DownloadResult, error)
}

func (f *fakeFetcher) Search(ctx context.Context, query string, maxResults int) ([]*pubmed.SearchRecord, error) {
	return f.searchFn(ctx, query, maxResults)
}

func (f *fakeFetcher) FetchCitationXML(ctx context.Context, pmid string) ([]byte, error) {
	if f.citationFn == nil {
		return nil, domain.NewNotFoundError("citation", pmid)
	}
	return f.citationFn(ctx, pmid)
}

func (f *fakeFetcher) FetchSummary(ctx context.Context, pmid string) (*pubmed.SummaryResult, error) {
	if f.summaryFn == nil {
		return nil, domain.NewNotFoundError("summary", pmid)
	}
	return f.summaryFn(ctx, pmid)
}

func (f *fakeFetcher) FetchPDF(ctx context.Context, pmid string) (*pdf.DownloadResult, error) {
	if f.pdfFn == nil {
		return nil, domain.NewNotFoundError("pmc record", pmid)
	}
	return f.pdfFn(ctx, pmid)
}

func citationDoc(pmid, title string) []byte {
	return []byte(fmt.Sprintf(`<PubmedArticleSet><PubmedArticle>
		<MedlineCitation>
			<PMID>%s</PMID>
			<Article><ArticleTitle>%s</ArticleTitle></Article>
		</MedlineCitation>
		<PubmedData><ArticleIdList>
			<ArticleId IdType="pubmed">%s</ArticleId>
		</ArticleIdList></PubmedData>
	</PubmedArticle></PubmedArticleSet>`, pmid, title, pmid))
}

func searchRecords(pmids ...string) []*pubmed.SearchRecord {
	records := make([]*pubmed.SearchRecord, 0, len(pmids))
	for _, id := range pmids {
		records = append(records, &pubmed.SearchRecord{
			Titles:   []string{"Title " + id},
			PubmedID: id,
		})
	}
	return records
}

var metricsSeq int

func newTestProcessor(t *testing.T, fetcher Fetcher, cfg Config) (*Processor, string) {
	t.Helper()
	base := t.TempDir()
	store, err := storage.New(base, zerolog.Nop())
	require.NoError(t, err)

	metricsSeq++
	metrics := observability.NewMetrics(fmt.Sprintf("test_processor_%d", metricsSeq))
	return New(fetcher, store, cfg, zerolog.Nop(), metrics), base
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func findSearchBlobs(t *testing.T, base string) (metadataPath, summaryPath string) {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(base, storage.SearchResultsDir))
	require.NoError(t, err)
	for _, e := range entries {
		full := filepath.Join(base, storage.SearchResultsDir, e.Name())
		if strings.HasSuffix(e.Name(), "_summary.json") {
			summaryPath = full
		} else {
			metadataPath = full
		}
	}
	return metadataPath, summaryPath
}

func TestProcess(t *testing.T) {
	t.Run("processes every article and persists all artifacts", func(t *testing.T) {
		pdfContent := []byte("%PDF-1.4 fake")
		fetcher := &fakeFetcher{
			searchFn: func(_ context.Context, query string, _ int) ([]*pubmed.SearchRecord, error) {
				return searchRecords("11111111", "22222222"), nil
			},
			citationFn: func(_ context.Context, pmid string) ([]byte, error) {
				return citationDoc(pmid, "Article "+pmid), nil
			},
			summaryFn: func(_ context.Context, pmid string) (*pubmed.SummaryResult, error) {
				return &pubmed.SummaryResult{
					Record: &pubmed.SummaryRecord{UID: pmid},
					Raw:    map[string]any{"result": map[string]any{"uids": []any{pmid}}},
				}, nil
			},
			pdfFn: func(_ context.Context, pmid string) (*pdf.DownloadResult, error) {
				return &pdf.DownloadResult{Content: pdfContent, SizeBytes: int64(len(pdfContent))}, nil
			},
		}

		proc, base := newTestProcessor(t, fetcher, Config{DownloadPDFs: true, FetchSummaries: true})
		summary, err := proc.Process(context.Background(), "crispr", 10)
		require.NoError(t, err)

		assert.Equal(t, "crispr", summary.Query)
		assert.Equal(t, 2, summary.TotalArticlesFound)
		assert.Equal(t, 2, summary.SuccessfullyProcessed)
		assert.Equal(t, 0, summary.FailedProcessing)
		assert.Empty(t, summary.FailedPMIDs)
		require.Len(t, summary.Articles, 2)
		assert.Equal(t, "Article 11111111", summary.Articles[0].Title)

		for _, pmid := range []string{"11111111", "22222222"} {
			record := readJSON(t, filepath.Join(base, storage.XMLMetadataDir, pmid+".json"))
			assert.Equal(t, "Article "+pmid, record["title"])
			assert.Equal(t, "xml", record["metadata_type"])
			assert.NotEmpty(t, record["saved_at"])

			sum := readJSON(t, filepath.Join(base, storage.SummaryDir, pmid+".json"))
			assert.Equal(t, "summary", sum["metadata_type"])
			assert.NotEmpty(t, sum["saved_at"])

			data, err := os.ReadFile(filepath.Join(base, storage.PDFDir, pmid+".pdf"))
			require.NoError(t, err)
			assert.Equal(t, pdfContent, data)
		}

		metadataPath, summaryPath := findSearchBlobs(t, base)
		require.NotEmpty(t, metadataPath)
		require.NotEmpty(t, summaryPath)

		searchMeta := readJSON(t, metadataPath)
		assert.Equal(t, "crispr", searchMeta["query"])
		assert.Equal(t, float64(2), searchMeta["results_found"])
		assert.Len(t, searchMeta["pmids"], 2)

		batchSummary := readJSON(t, summaryPath)
		assert.Equal(t, float64(2), batchSummary["successfully_processed"])
		assert.Equal(t, float64(0), batchSummary["failed_processing"])
	})

	t.Run("falls back to search when the citation path fails", func(t *testing.T) {
		fetcher := &fakeFetcher{
			searchFn: func(_ context.Context, query string, _ int) ([]*pubmed.SearchRecord, error) {
				if strings.HasSuffix(query, "[pmid]") {
					return searchRecords(strings.TrimSuffix(query, "[pmid]")), nil
				}
				return searchRecords("11111111"), nil
			},
			citationFn: func(_ context.Context, pmid string) ([]byte, error) {
				return nil, domain.NewNotFoundError("citation", pmid)
			},
		}

		proc, base := newTestProcessor(t, fetcher, Config{})
		summary, err := proc.Process(context.Background(), "crispr", 1)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.SuccessfullyProcessed)
		assert.Equal(t, 0, summary.FailedProcessing)
		require.Len(t, summary.Articles, 1)
		assert.Equal(t, "Title 11111111", summary.Articles[0].Title)
		assert.FileExists(t, filepath.Join(base, storage.XMLMetadataDir, "11111111.json"))
	})

	t.Run("counts ids that fail both paths", func(t *testing.T) {
		fetcher := &fakeFetcher{
			searchFn: func(_ context.Context, query string, _ int) ([]*pubmed.SearchRecord, error) {
				if strings.HasSuffix(query, "[pmid]") {
					return []*pubmed.SearchRecord{}, nil
				}
				return searchRecords("11111111", "22222222"), nil
			},
			citationFn: func(_ context.Context, pmid string) ([]byte, error) {
				if pmid == "11111111" {
					return citationDoc(pmid, "Survivor"), nil
				}
				return nil, domain.NewNotFoundError("citation", pmid)
			},
		}

		proc, _ := newTestProcessor(t, fetcher, Config{})
		summary, err := proc.Process(context.Background(), "crispr", 10)
		require.NoError(t, err)

		assert.Equal(t, 2, summary.TotalArticlesFound)
		assert.Equal(t, 1, summary.SuccessfullyProcessed)
		assert.Equal(t, 1, summary.FailedProcessing)
		assert.Equal(t, []string{"22222222"}, summary.FailedPMIDs)
	})

	t.Run("summary and pdf failures never fail the article", func(t *testing.T) {
		fetcher := &fakeFetcher{
			searchFn: func(_ context.Context, _ string, _ int) ([]*pubmed.SearchRecord, error) {
				return searchRecords("11111111"), nil
			},
			citationFn: func(_ context.Context, pmid string) ([]byte, error) {
				return citationDoc(pmid, "Resilient"), nil
			},
			summaryFn: func(_ context.Context, pmid string) (*pubmed.SummaryResult, error) {
				return nil, domain.NewNotFoundError("summary", pmid)
			},
			pdfFn: func(_ context.Context, pmid string) (*pdf.DownloadResult, error) {
				return nil, errors.New("pmc outage")
			},
		}

		proc, base := newTestProcessor(t, fetcher, Config{DownloadPDFs: true, FetchSummaries: true})
		summary, err := proc.Process(context.Background(), "crispr", 1)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.SuccessfullyProcessed)
		assert.NoFileExists(t, filepath.Join(base, storage.SummaryDir, "11111111.json"))
		assert.NoFileExists(t, filepath.Join(base, storage.PDFDir, "11111111.pdf"))
	})

	t.Run("failed search persists an error summary and returns the error", func(t *testing.T) {
		fetcher := &fakeFetcher{
			searchFn: func(_ context.Context, _ string, _ int) ([]*pubmed.SearchRecord, error) {
				return nil, domain.NewExternalAPIError("PubMed", 500, "boom", nil)
			},
		}

		proc, base := newTestProcessor(t, fetcher, Config{})
		summary, err := proc.Process(context.Background(), "crispr", 10)
		require.Error(t, err)
		assert.Nil(t, summary)
		assert.ErrorIs(t, err, domain.ErrServiceUnavailable)

		_, summaryPath := findSearchBlobs(t, base)
		require.NotEmpty(t, summaryPath)

		blob := readJSON(t, summaryPath)
		assert.Equal(t, "crispr", blob["query"])
		assert.Contains(t, blob["error"], "boom")
		assert.NotEmpty(t, blob["timestamp"])
	})

	t.Run("empty search result completes with an empty summary", func(t *testing.T) {
		fetcher := &fakeFetcher{
			searchFn: func(_ context.Context, _ string, _ int) ([]*pubmed.SearchRecord, error) {
				return []*pubmed.SearchRecord{}, nil
			},
		}

		proc, _ := newTestProcessor(t, fetcher, Config{})
		summary, err := proc.Process(context.Background(), "nothing matches", 10)
		require.NoError(t, err)

		assert.Equal(t, 0, summary.TotalArticlesFound)
		assert.Equal(t, 0, summary.SuccessfullyProcessed)
		assert.Empty(t, summary.Articles)
	})

	t.Run("cancelled context stops per-article work", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		fetcher := &fakeFetcher{
			searchFn: func(_ context.Context, _ string, _ int) ([]*pubmed.SearchRecord, error) {
				cancel()
				return searchRecords("11111111", "22222222"), nil
			},
			citationFn: func(_ context.Context, pmid string) ([]byte, error) {
				return citationDoc(pmid, "never reached"), nil
			},
		}

		proc, _ := newTestProcessor(t, fetcher, Config{})
		summary, err := proc.Process(ctx, "crispr", 10)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.SuccessfullyProcessed)
	})
}

func TestEnhanceRecord(t *testing.T) {
	article := &domain.Article{Title: "t", PMID: "1"}
	article.ApplyDefaults()

	payload, err := enhanceRecord(article, "xml")
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(payload, &record))
	assert.Equal(t, "t", record["title"])
	assert.Equal(t, "xml", record["metadata_type"])
	assert.NotEmpty(t, record["saved_at"])
}

func TestCollectPMIDs(t *testing.T) {
	records := []*pubmed.SearchRecord{
		{PubmedID: "11111111 99999999"},
		{PubmedID: ""},
		{PubmedID: "22222222"},
	}
	assert.Equal(t, []string{"11111111", "22222222"}, collectPMIDs(records))
}
