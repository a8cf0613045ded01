// Package pdf downloads article PDFs from PubMed Central.
package pdf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for PDF download operations.
var (
	// ErrNotPDF is returned when the response Content-Type is not application/pdf.
	ErrNotPDF = errors.New("pdf: response is not a PDF")
	// ErrTooLarge is returned when the file exceeds the maximum allowed size.
	ErrTooLarge = errors.New("pdf: file exceeds maximum size")
	// ErrDownloadFailed is returned when the download fails due to network or HTTP errors.
	ErrDownloadFailed = errors.New("pdf: download failed")
)

// DownloadResult holds the result of downloading a PDF.
type DownloadResult struct {
	// Content is the PDF bytes.
	Content []byte
	// ContentHash is the SHA-256 hex digest of the content.
	ContentHash string
	// SizeBytes is the size of the content in bytes.
	SizeBytes int64
	// ContentType is the actual Content-Type header from the response.
	ContentType string
}

// Config holds downloader configuration.
type Config struct {
	// Timeout is the HTTP request timeout. Default: 60 seconds.
	Timeout time.Duration
	// MaxSize is the maximum file size in bytes. Default: 100MB.
	MaxSize int64
	// UserAgent is the User-Agent header. PMC serves its PDF pages to
	// browser-like agents only, so the default imitates one.
	UserAgent string
}

// Downloader downloads PDFs from PMC article URLs.
type Downloader struct {
	client    *http.Client
	maxSize   int64
	userAgent string
}

// NewDownloader creates a new Downloader with the given configuration.
func NewDownloader(cfg Config) *Downloader {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100 * 1024 * 1024 // 100MB
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.93 Safari/537.36"
	}

	return &Downloader{
		maxSize:   cfg.MaxSize,
		userAgent: cfg.UserAgent,
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("%w: too many redirects", ErrDownloadFailed)
				}
				return nil
			},
		},
	}
}

// Download fetches a PDF from the given URL.
// Returns ErrNotPDF if Content-Type is not application/pdf.
// Returns ErrTooLarge if the response exceeds MaxSize.
// Returns ErrDownloadFailed wrapped with HTTP status for non-2xx responses.
func (d *Downloader) Download(ctx context.Context, url string) (*DownloadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %w", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/pdf, */*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrDownloadFailed, resp.StatusCode)
	}

	// Allow "application/pdf" with optional charset etc.
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return nil, fmt.Errorf("%w: Content-Type is %q", ErrNotPDF, contentType)
	}

	// Read one extra byte to detect if the file is too large.
	limitReader := io.LimitReader(resp.Body, d.maxSize+1)
	content, err := io.ReadAll(limitReader)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrDownloadFailed, err)
	}
	if int64(len(content)) > d.maxSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrTooLarge, d.maxSize)
	}

	hash := sha256.Sum256(content)

	return &DownloadResult{
		Content:     content,
		ContentHash: hex.EncodeToString(hash[:]),
		SizeBytes:   int64(len(content)),
		ContentType: contentType,
	}, nil
}
