package handlers

import (
  "fmt"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/relearn-backend/internal/apierr"
  "github.com/yungbote/relearn-backend/internal/services"
)

type GenerationHandler struct {
  generationService services.TopicGenerationService
}

func NewGenerationHandler(generationService services.TopicGenerationService) *GenerationHandler {
  return &GenerationHandler{generationService: generationService}
}

func (gh *GenerationHandler) Generate(c *gin.Context) {
  var req services.TopicGenerationInput
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apierr.Validation(fmt.Errorf("Invalid request body"), nil))
    return
  }
  result, err := gh.generationService.GenerateTopics(c.Request.Context(), req)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, result)
}
