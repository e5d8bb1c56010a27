package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"pdf-search-service/internal/config"
	"pdf-search-service/internal/faults"
)

func newTestExtractor(t *testing.T) *PDFExtractor {
	t.Helper()
	return NewPDFExtractor(&config.Config{
		FileStorageDir: t.TempDir(),
		FetchTimeout:   5,
		MaxFileSize:    1 << 20,
	})
}

func TestExtractInvalidPDFBytes(t *testing.T) {
	e := newTestExtractor(t)

	path := filepath.Join(t.TempDir(), "bogus.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := e.ExtractFile(context.Background(), path)
	if !faults.Is(err, faults.KindExtraction) {
		t.Fatalf("expected extraction fault for invalid PDF, got %v", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	e := newTestExtractor(t)
	_, err := e.ExtractFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	if !faults.Is(err, faults.KindExtraction) {
		t.Fatalf("expected extraction fault for missing file, got %v", err)
	}
}

func TestExtractURLNotFound(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := newTestExtractor(t)
	_, err := e.ExtractURL(context.Background(), srv.URL+"/missing.pdf")
	if !faults.Is(err, faults.KindExtraction) {
		t.Fatalf("expected extraction fault for 404, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("4xx must not be retried, got %d requests", calls)
	}
}

func TestExtractURLServerErrorRetriedOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := newTestExtractor(t)
	_, err := e.ExtractURL(context.Background(), srv.URL+"/doc.pdf")
	if !faults.Is(err, faults.KindExtraction) {
		t.Fatalf("expected extraction fault after retries, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("5xx should be retried exactly once, got %d requests", calls)
	}
}

func TestExtractURLWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not a pdf</html>"))
	}))
	defer srv.Close()

	e := newTestExtractor(t)
	_, err := e.ExtractURL(context.Background(), srv.URL+"/page")
	if !faults.Is(err, faults.KindExtraction) {
		t.Fatalf("expected extraction fault for non-PDF content type, got %v", err)
	}
}

func TestExtractURLCleansTempFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-garbage that will not parse"))
	}))
	defer srv.Close()

	storageDir := t.TempDir()
	e := NewPDFExtractor(&config.Config{
		FileStorageDir: storageDir,
		FetchTimeout:   5,
		MaxFileSize:    1 << 20,
	})

	_, err := e.ExtractURL(context.Background(), srv.URL+"/doc.pdf")
	if err == nil {
		t.Fatal("expected parse failure")
	}

	entries, readErr := os.ReadDir(filepath.Join(storageDir, "temp"))
	if readErr != nil {
		t.Fatalf("read temp dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("temp download not cleaned up, %d files left", len(entries))
	}
}

func TestExtractURLRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	e := NewPDFExtractor(&config.Config{
		FileStorageDir: t.TempDir(),
		FetchTimeout:   5,
		MaxFileSize:    1024,
	})

	_, err := e.ExtractURL(context.Background(), srv.URL+"/huge.pdf")
	if !faults.Is(err, faults.KindExtraction) {
		t.Fatalf("expected extraction fault for oversized body, got %v", err)
	}
}
