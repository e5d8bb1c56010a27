package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdf-search-service/models"
	"pdf-search-service/services"
	"pdf-search-service/utils"
)

// SetupSearchRoutes registers the semantic search endpoint
func SetupSearchRoutes(router *gin.Engine, search *services.SearchService) {
	router.POST("/api/search", handleSearch(search))
}

func handleSearch(search *services.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := decodeStrict(c.Request.Body, &req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}

		// A caller that sends top_k must send a usable one. Omitting the
		// field selects the configured default.
		topK := 0
		if req.TopK != nil {
			if *req.TopK <= 0 {
				utils.RespondWithBadRequest(c, "top_k must be a positive integer", nil)
				return
			}
			topK = *req.TopK
		}

		results, err := search.Search(c.Request.Context(), req.Query, topK)
		if err != nil {
			utils.RespondWithFault(c, err)
			return
		}

		c.JSON(http.StatusOK, results)
	}
}
