package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdf-search-service/models"
	"pdf-search-service/services"
	"pdf-search-service/utils"
)

// SetupPromptRoutes registers the system-prompt management endpoints
func SetupPromptRoutes(router *gin.Engine, prompts *services.PromptService) {
	api := router.Group("/api/prompts")
	{
		api.POST("", handleCreatePrompt(prompts))
		api.GET("", handleListPrompts(prompts))
		api.GET("/active", handleGetActivePrompt(prompts))
		api.GET("/:id", handleGetPrompt(prompts))
		api.PUT("/:id", handleUpdatePrompt(prompts))
		api.DELETE("/:id", handleDeletePrompt(prompts))
		api.POST("/:id/activate", handleActivatePrompt(prompts))
	}
}

func handleCreatePrompt(prompts *services.PromptService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PromptRequest
		if err := decodeStrict(c.Request.Body, &req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}

		prompt, err := prompts.Create(c.Request.Context(), &req)
		if err != nil {
			utils.RespondWithFault(c, err)
			return
		}
		c.JSON(http.StatusCreated, prompt)
	}
}

func handleListPrompts(prompts *services.PromptService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := prompts.List(c.Request.Context())
		if err != nil {
			utils.RespondWithFault(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(list), "prompts": list})
	}
}

func handleGetActivePrompt(prompts *services.PromptService) gin.HandlerFunc {
	return func(c *gin.Context) {
		prompt, err := prompts.GetActive(c.Request.Context())
		if err != nil {
			utils.RespondWithFault(c, err)
			return
		}
		if prompt == nil {
			// No prompt has been activated; callers still get usable content.
			c.JSON(http.StatusOK, gin.H{
				"name":      "default",
				"content":   models.DefaultPromptContent,
				"is_active": false,
			})
			return
		}
		c.JSON(http.StatusOK, prompt)
	}
}

func handleGetPrompt(prompts *services.PromptService) gin.HandlerFunc {
	return func(c *gin.Context) {
		prompt, err := prompts.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithFault(c, err)
			return
		}
		if prompt == nil {
			utils.RespondWithNotFound(c, "Prompt not found")
			return
		}
		c.JSON(http.StatusOK, prompt)
	}
}

func handleUpdatePrompt(prompts *services.PromptService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PromptRequest
		if err := decodeStrict(c.Request.Body, &req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}

		found, err := prompts.Update(c.Request.Context(), c.Param("id"), &req)
		if err != nil {
			utils.RespondWithFault(c, err)
			return
		}
		if !found {
			utils.RespondWithNotFound(c, "Prompt not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Prompt updated successfully"})
	}
}

func handleDeletePrompt(prompts *services.PromptService) gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := prompts.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithFault(c, err)
			return
		}
		if !found {
			utils.RespondWithNotFound(c, "Prompt not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Prompt deleted successfully"})
	}
}

func handleActivatePrompt(prompts *services.PromptService) gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := prompts.SetActive(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithFault(c, err)
			return
		}
		if !found {
			utils.RespondWithNotFound(c, "Prompt not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Prompt activated successfully"})
	}
}
