package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-harvester/internal/domain"
	"github.com/helixir/pubmed-harvester/internal/entrez"
	"github.com/helixir/pubmed-harvester/internal/observability"
	"github.com/helixir/pubmed-harvester/internal/pdf"
)

const (
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultPMCBaseURL is the base URL for PubMed Central article pages.
	DefaultPMCBaseURL = "https://www.ncbi.nlm.nih.gov/pmc/articles"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per search.
	DefaultMaxResults = 100

	// MaxResultsLimit is the maximum results allowed per request by the API.
	MaxResultsLimit = 10000

	// DefaultPDFInterval is the minimum spacing between consecutive PDF
	// retrievals. PDF fetches hit PMC rather than the E-utilities
	// endpoints, so they pace far more aggressively than metadata calls.
	DefaultPDFInterval = 10 * time.Millisecond

	// sourceName is the human-readable name for this source.
	sourceName = "PubMed"

	// maxResponseBytes caps how much of an upstream response body is read.
	maxResponseBytes = 10 << 20
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// PMCBaseURL is the base URL for PMC article pages, used to build
	// PDF URLs. Defaults to DefaultPMCBaseURL if empty.
	PMCBaseURL string

	// Tool identifies the calling application to NCBI.
	Tool string

	// Email is the contact address NCBI asks callers to supply.
	Email string

	// APIKey is the NCBI API key for higher rate limits.
	// Optional but recommended for production use.
	APIKey string

	// Timeout is the request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RequestInterval is the minimum spacing between metadata requests.
	// Defaults to entrez.DefaultInterval if zero.
	RequestInterval time.Duration

	// PDFRequestInterval is the minimum spacing between PDF retrievals.
	// Defaults to DefaultPDFInterval if zero.
	PDFRequestInterval time.Duration

	// MaxResults is the default maximum results per search.
	// Defaults to DefaultMaxResults if zero.
	MaxResults int
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PMCBaseURL == "" {
		c.PMCBaseURL = DefaultPMCBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RequestInterval == 0 {
		c.RequestInterval = entrez.DefaultInterval
	}
	if c.PDFRequestInterval == 0 {
		c.PDFRequestInterval = DefaultPDFInterval
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client talks to the NCBI E-utilities endpoints. Metadata calls share one
// paced HTTP client; the PDF path paces independently on a shorter interval
// so citation traffic and PMC traffic never delay each other.
type Client struct {
	config     Config
	httpClient *entrez.HTTPClient
	pdfClient  *entrez.HTTPClient
	downloader *pdf.Downloader
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// PDFResult holds the outcome of one PDF retrieval in a batch.
type PDFResult struct {
	Result *pdf.DownloadResult
	Err    error
}

// New creates a new PubMed client with the given configuration. Every
// request is counted on the metrics by endpoint and outcome.
func New(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	metadataClient := entrez.NewHTTPClient(entrez.HTTPClientConfig{
		Timeout:  cfg.Timeout,
		Interval: cfg.RequestInterval,
	})
	pdfClient := entrez.NewHTTPClient(entrez.HTTPClientConfig{
		Timeout:  cfg.Timeout,
		Interval: cfg.PDFRequestInterval,
	})

	return &Client{
		config:     cfg,
		httpClient: metadataClient,
		pdfClient:  pdfClient,
		downloader: pdf.NewDownloader(pdf.Config{Timeout: cfg.Timeout}),
		logger:     logger.With().Str("component", "pubmed_client").Logger(),
		metrics:    metrics,
	}
}

// NewWithHTTPClients creates a PubMed client with custom HTTP clients and
// downloader. This is useful for testing with mock servers.
func NewWithHTTPClients(cfg Config, logger zerolog.Logger, metrics *observability.Metrics, metadata, pdfClient *entrez.HTTPClient, downloader *pdf.Downloader) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: metadata,
		pdfClient:  pdfClient,
		downloader: downloader,
		logger:     logger.With().Str("component", "pubmed_client").Logger(),
		metrics:    metrics,
	}
}

// Search queries PubMed for records matching the given query.
// It performs a two-step search:
// 1. esearch.fcgi - retrieves PMIDs matching the query
// 2. efetch.fcgi - retrieves citations for the PMIDs, flattened to the
// loose search-result shape.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]*SearchRecord, error) {
	searchResult, err := c.esearch(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}

	// Phrases not found are empty results, not errors.
	if searchResult.ErrorList != nil && len(searchResult.ErrorList.PhraseNotFound) > 0 {
		return []*SearchRecord{}, nil
	}
	if len(searchResult.IDList.IDs) == 0 {
		return []*SearchRecord{}, nil
	}

	articles, err := c.efetch(ctx, searchResult.IDList.IDs)
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}

	records := make([]*SearchRecord, 0, len(articles.Articles))
	for _, article := range articles.Articles {
		records = append(records, searchRecordFromArticle(article))
	}
	return records, nil
}

// FetchCitationXML retrieves the full citation document for a PMID. A
// response carrying no PubmedArticle element means the id is unknown and
// returns a NotFoundError; transport and HTTP failures surface as
// ExternalAPIError. Callers treat both as unavailable but log them apart.
func (c *Client) FetchCitationXML(ctx context.Context, pmid string) ([]byte, error) {
	params := url.Values{}
	params.Set("id", pmid)
	params.Set("retmode", "xml")
	params.Set("rettype", "full")

	body, err := c.get(ctx, c.httpClient, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var set PubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to parse citation XML: %w", err)
	}
	if len(set.Articles) == 0 {
		return nil, domain.NewNotFoundError("citation", pmid)
	}
	return body, nil
}

// FetchSummary retrieves the flat JSON summary record for a PMID. The raw
// payload is preserved on the result for persistence.
func (c *Client) FetchSummary(ctx context.Context, pmid string) (*SummaryResult, error) {
	params := url.Values{}
	params.Set("id", pmid)
	params.Set("retmode", "json")

	body, err := c.get(ctx, c.httpClient, "esummary.fcgi", params)
	if err != nil {
		return nil, err
	}

	result, err := parseSummary(body)
	if err != nil {
		return nil, domain.NewNotFoundError("summary", pmid)
	}
	return result, nil
}

// FetchPDF retrieves the PDF for a PMID from PubMed Central. It resolves
// the PMID to a PMC id via elink, then downloads the article PDF. Both the
// elink call and the download are paced on the PDF interval.
func (c *Client) FetchPDF(ctx context.Context, pmid string) (*pdf.DownloadResult, error) {
	pmcID, err := c.elinkPMC(ctx, pmid)
	if err != nil {
		return nil, err
	}

	pdfURL := fmt.Sprintf("%s/PMC%s/pdf/", c.config.PMCBaseURL, pmcID)
	// The downloader carries its own HTTP client, so the download waits on
	// the shared PDF pacer explicitly.
	if err := c.pdfClient.Pacer().Wait(ctx); err != nil {
		return nil, fmt.Errorf("pacer wait: %w", err)
	}
	result, err := c.downloader.Download(ctx, pdfURL)
	if err != nil {
		return nil, fmt.Errorf("pdf download for PMID %s: %w", pmid, err)
	}
	return result, nil
}

// BatchFetchPDFs retrieves PDFs for multiple PMIDs concurrently. Each task
// independently waits on the shared PDF pacer; a failing task never cancels
// its siblings. The result map carries one entry per requested id.
func (c *Client) BatchFetchPDFs(ctx context.Context, pmids []string) map[string]PDFResult {
	type indexed struct {
		pmid   string
		result PDFResult
	}

	var wg sync.WaitGroup
	slots := make([]indexed, len(pmids))
	for i, pmid := range pmids {
		wg.Add(1)
		go func(i int, pmid string) {
			defer wg.Done()
			data, err := c.FetchPDF(ctx, pmid)
			slots[i] = indexed{pmid: pmid, result: PDFResult{Result: data, Err: err}}
		}(i, pmid)
	}
	wg.Wait()

	results := make(map[string]PDFResult, len(pmids))
	for _, s := range slots {
		results[s.pmid] = s.result
	}
	return results
}

// esearch performs a search query and returns matching PMIDs.
func (c *Client) esearch(ctx context.Context, query string, maxResults int) (*ESearchResult, error) {
	if maxResults <= 0 {
		maxResults = c.config.MaxResults
	}
	if maxResults > MaxResultsLimit {
		maxResults = MaxResultsLimit
	}

	params := url.Values{}
	params.Set("term", query)
	params.Set("retmode", "xml")
	params.Set("usehistory", "n")
	params.Set("retmax", strconv.Itoa(maxResults))

	body, err := c.get(ctx, c.httpClient, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var result ESearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse XML response: %w", err)
	}
	return &result, nil
}

// efetch retrieves full citations for the given PMIDs.
func (c *Client) efetch(ctx context.Context, pmids []string) (*PubmedArticleSet, error) {
	if len(pmids) == 0 {
		return &PubmedArticleSet{}, nil
	}

	params := url.Values{}
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")

	body, err := c.get(ctx, c.httpClient, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var result PubmedArticleSet
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse XML response: %w", err)
	}
	return &result, nil
}

// elinkPMC resolves a PMID to its PMC id through the elink endpoint. A PMID
// without a PMC record returns a NotFoundError.
func (c *Client) elinkPMC(ctx context.Context, pmid string) (string, error) {
	params := url.Values{}
	params.Set("dbfrom", "pubmed")
	params.Set("db", "pmc")
	params.Set("id", pmid)
	params.Set("linkname", "pubmed_pmc")
	params.Set("retmode", "json")

	body, err := c.get(ctx, c.pdfClient, "elink.fcgi", params)
	if err != nil {
		return "", err
	}

	var result eLinkResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse elink response: %w", err)
	}

	for _, ls := range result.LinkSets {
		for _, db := range ls.LinkSetDBs {
			if len(db.Links) > 0 {
				return db.Links[0], nil
			}
		}
	}
	c.logger.Debug().Str("pmid", pmid).Msg("no PMC record for PMID")
	return "", domain.NewNotFoundError("pmc record", pmid)
}

// get executes a GET against an E-utilities endpoint through the given
// paced client and returns the response body. Non-200 statuses become
// ExternalAPIError. Requests count on the metrics under the bare endpoint
// name (esearch, efetch, esummary, elink).
func (c *Client) get(ctx context.Context, httpClient *entrez.HTTPClient, endpoint string, params url.Values) ([]byte, error) {
	u, err := url.Parse(c.config.BaseURL + "/" + endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if params.Get("db") == "" {
		params.Set("db", "pubmed")
	}
	if c.config.Tool != "" {
		params.Set("tool", c.config.Tool)
	}
	if c.config.Email != "" {
		params.Set("email", c.config.Email)
	}
	if c.config.APIKey != "" {
		params.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	name := strings.TrimSuffix(endpoint, ".fcgi")
	c.metrics.RecordEntrezRequest(name)

	resp, err := httpClient.Do(req)
	if err != nil {
		c.metrics.RecordEntrezRequestFailed(name, "transport")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.RecordEntrezRequestFailed(name, "read")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordEntrezRequestFailed(name, "http_status")
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}
	return body, nil
}
