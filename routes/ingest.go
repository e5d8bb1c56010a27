package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pdf-search-service/internal/config"
	"pdf-search-service/internal/logger"
	"pdf-search-service/models"
	"pdf-search-service/services"
	"pdf-search-service/utils"
)

var pdfMagic = []byte("%PDF")

// SetupIngestRoutes registers the document ingestion endpoints
func SetupIngestRoutes(router *gin.Engine, cfg *config.Config, ingestor *services.Ingestor) {
	api := router.Group("/api")
	{
		api.POST("/upload", handleUpload(cfg, ingestor))
		api.POST("/upload-url", handleUploadURL(ingestor))
	}
}

// handleUpload processes multipart PDF file uploads
func handleUpload(cfg *config.Config, ingestor *services.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large",
				"File size exceeds maximum limit", nil)
			return
		}

		file, header, err := c.Request.FormFile("pdf")
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "no_file",
				"No PDF file provided", nil)
			return
		}
		defer file.Close()

		ct := header.Header.Get("Content-Type")
		if !isAllowedType(cfg.AllowedTypes, ct) && !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file_type",
				"Only PDF files are allowed", nil)
			return
		}

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large",
				"File size exceeds maximum limit", nil)
			return
		}

		content, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize+1))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read file", nil)
			return
		}
		if int64(len(content)) > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large",
				"File size exceeds maximum limit", nil)
			return
		}
		if !bytes.HasPrefix(content, pdfMagic) {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file_type",
				"File is not a valid PDF", nil)
			return
		}

		if err := os.MkdirAll(cfg.FileStorageDir, 0o755); err != nil {
			utils.RespondWithInternalError(c, "Failed to prepare storage directory", nil)
			return
		}
		path := filepath.Join(cfg.FileStorageDir, uuid.NewString()+".pdf")
		if err := os.WriteFile(path, content, 0o644); err != nil {
			utils.RespondWithInternalError(c, "Failed to save file", nil)
			return
		}
		defer func() {
			if err := os.Remove(path); err != nil {
				logger.Warn("Failed to remove stored upload", "path", path, "error", err)
			}
		}()

		result, err := ingestor.IngestFile(c.Request.Context(),
			header.Filename, path, utils.HashBytes(content))
		if err != nil {
			utils.RespondWithFault(c, err)
			return
		}

		c.JSON(http.StatusOK, models.UploadResponse{
			DocumentID: result.DocumentID,
			ChunkCount: result.ChunkCount,
			Duplicate:  result.Duplicate,
		})
	}
}

// handleUploadURL downloads a PDF from a URL and ingests it
func handleUploadURL(ingestor *services.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UploadURLRequest
		if err := decodeStrict(c.Request.Body, &req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}

		if !isHTTPURL(req.URL) {
			utils.RespondWithBadRequest(c, "A valid http(s) URL is required", nil)
			return
		}

		result, err := ingestor.IngestURL(c.Request.Context(), req.URL)
		if err != nil {
			utils.RespondWithFault(c, err)
			return
		}

		c.JSON(http.StatusOK, models.UploadResponse{
			DocumentID: result.DocumentID,
			ChunkCount: result.ChunkCount,
			Duplicate:  result.Duplicate,
		})
	}
}

// decodeStrict decodes a JSON body, rejecting unknown fields
func decodeStrict(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func isAllowedType(allowed []string, contentType string) bool {
	if contentType == "" {
		return false
	}
	for _, t := range allowed {
		if strings.Contains(contentType, strings.TrimSpace(t)) {
			return true
		}
	}
	return false
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
