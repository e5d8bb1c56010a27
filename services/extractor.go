package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"pdf-search-service/internal/config"
	"pdf-search-service/internal/faults"
	"pdf-search-service/internal/logger"
	"pdf-search-service/internal/retry"
)

// Extraction is the full text of one PDF. Page boundaries are normalized to
// whitespace; page order is preserved.
type Extraction struct {
	Text  string
	Pages int
}

// TextExtractor turns a PDF source into text. Extraction is all-or-nothing:
// no partial text is ever returned alongside an error.
type TextExtractor interface {
	ExtractFile(ctx context.Context, path string) (*Extraction, error)
	ExtractURL(ctx context.Context, url string) (*Extraction, error)
}

// PDFExtractor reads PDFs from local paths or URLs. Downloads are buffered to
// a temp file that is removed on both success and failure.
type PDFExtractor struct {
	httpClient *http.Client
	tempDir    string
	maxSize    int64
	policy     retry.Policy
}

func NewPDFExtractor(cfg *config.Config) *PDFExtractor {
	tempDir := filepath.Join(cfg.FileStorageDir, "temp")
	os.MkdirAll(tempDir, 0755)

	return &PDFExtractor{
		httpClient: &http.Client{Timeout: time.Duration(cfg.FetchTimeout) * time.Second},
		tempDir:    tempDir,
		maxSize:    cfg.MaxFileSize,
		policy:     retry.OneTransientRetry(isFetchTransient),
	}
}

// ExtractFile parses a PDF on disk and returns its text with pages joined by
// blank lines.
func (e *PDFExtractor) ExtractFile(ctx context.Context, path string) (*Extraction, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, faults.Wrap(faults.KindExtraction, "", err, "failed to stat PDF file")
	}
	if e.maxSize > 0 && stat.Size() > e.maxSize {
		return nil, faults.New(faults.KindExtraction, "", "pdf exceeds size limit of %d bytes", e.maxSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, faults.Wrap(faults.KindExtraction, "", err, "failed to read PDF file")
	}
	return e.extract(content)
}

func (e *PDFExtractor) extract(content []byte) (*Extraction, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, faults.Wrap(faults.KindExtraction, "", err, "not a readable PDF")
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// All-or-nothing: a broken page fails the document.
			return nil, faults.Wrap(faults.KindExtraction, "", err,
				fmt.Sprintf("failed to extract text from page %d", i))
		}

		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n\n")
		}
		textBuilder.WriteString(text)
	}

	extracted := textBuilder.String()
	if strings.TrimSpace(extracted) == "" {
		return nil, faults.New(faults.KindExtraction, "", "no text extracted from PDF")
	}

	return &Extraction{Text: extracted, Pages: pages}, nil
}

// ExtractURL downloads a PDF and extracts it. The download gets one retry on
// transient failures (network error, 5xx); non-2xx and non-PDF responses fail
// immediately.
func (e *PDFExtractor) ExtractURL(ctx context.Context, url string) (*Extraction, error) {
	tempPath := filepath.Join(e.tempDir, uuid.NewString()+".pdf")

	err := e.policy.Do(ctx, func() error {
		return e.download(ctx, url, tempPath)
	})
	defer func() {
		if rmErr := os.Remove(tempPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("Failed to remove temp download", "path", tempPath, "error", rmErr)
		}
	}()
	if err != nil {
		if faults.KindOf(err) == faults.KindExtraction {
			return nil, err
		}
		return nil, faults.Wrap(faults.KindExtraction, "", err, "download failed")
	}

	return e.ExtractFile(ctx, tempPath)
}

// AttemptCount reports how many fetch attempts the retry policy allows.
func (e *PDFExtractor) AttemptCount() int { return e.policy.MaxAttempts }

func (e *PDFExtractor) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return faults.Wrap(faults.KindExtraction, "", err, "invalid download URL")
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err // network failure, candidate for retry
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &httpStatusError{status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return faults.New(faults.KindExtraction, "", "download returned status %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "pdf") && !strings.Contains(ct, "octet-stream") {
		return faults.New(faults.KindExtraction, "", "unexpected content type %q", ct)
	}

	body := io.Reader(resp.Body)
	if e.maxSize > 0 {
		body = io.LimitReader(resp.Body, e.maxSize+1)
	}

	dst, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return faults.Wrap(faults.KindExtraction, "", err, "failed to create temp file")
	}
	written, err := io.Copy(dst, body)
	closeErr := dst.Close()
	if err != nil {
		return err // interrupted transfer, candidate for retry
	}
	if closeErr != nil {
		return faults.Wrap(faults.KindExtraction, "", closeErr, "failed to flush temp file")
	}
	if e.maxSize > 0 && written > e.maxSize {
		return faults.New(faults.KindExtraction, "", "pdf exceeds size limit of %d bytes", e.maxSize)
	}
	return nil
}

type httpStatusError struct{ status int }

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.status)
}

// isFetchTransient marks network failures and 5xx responses as retryable;
// classified extraction faults (4xx, bad content type) are permanent.
func isFetchTransient(err error) bool {
	return faults.KindOf(err) == faults.KindUnknown
}
