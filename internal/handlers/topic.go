package handlers

import (
  "fmt"
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/relearn-backend/internal/apierr"
  "github.com/yungbote/relearn-backend/internal/services"
)

type TopicHandler struct {
  topicService services.TopicService
}

func NewTopicHandler(topicService services.TopicService) *TopicHandler {
  return &TopicHandler{topicService: topicService}
}

func parseTopicID(c *gin.Context) (uuid.UUID, error) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    return uuid.Nil, apierr.Validation(fmt.Errorf("Invalid topic id"), nil)
  }
  return id, nil
}

func (th *TopicHandler) List(c *gin.Context) {
  input := services.TopicListInput{
    Status:     c.Query("status"),
    Technology: c.Query("technology"),
    Sort:       c.Query("sort"),
    Order:      c.Query("order"),
  }

  // parent_id=null selects roots; a UUID selects direct children.
  if raw, ok := c.GetQuery("parent_id"); ok {
    if raw == "null" {
      input.RootsOnly = true
    } else {
      parentID, err := uuid.Parse(raw)
      if err != nil {
        RespondError(c, apierr.Validation(fmt.Errorf("Invalid parent_id filter"), nil))
        return
      }
      input.ParentID = &parentID
    }
  }

  if raw := c.Query("page"); raw != "" {
    page, err := strconv.Atoi(raw)
    if err != nil || page < 1 {
      RespondError(c, apierr.Validation(fmt.Errorf("Invalid page parameter"), nil))
      return
    }
    input.Page = page
  }
  if raw := c.Query("limit"); raw != "" {
    limit, err := strconv.Atoi(raw)
    if err != nil || limit < 1 {
      RespondError(c, apierr.Validation(fmt.Errorf("Invalid limit parameter"), nil))
      return
    }
    input.Limit = limit
  }

  result, err := th.topicService.ListTopics(c.Request.Context(), input)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, result)
}

func (th *TopicHandler) Get(c *gin.Context) {
  topicID, err := parseTopicID(c)
  if err != nil {
    RespondError(c, err)
    return
  }
  topic, err := th.topicService.GetTopic(c.Request.Context(), topicID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, topic)
}

func (th *TopicHandler) GetChildren(c *gin.Context) {
  topicID, err := parseTopicID(c)
  if err != nil {
    RespondError(c, err)
    return
  }
  children, err := th.topicService.GetChildren(c.Request.Context(), topicID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"topics": children})
}

func (th *TopicHandler) Create(c *gin.Context) {
  var req services.TopicCreateInput
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apierr.Validation(fmt.Errorf("Invalid request body"), nil))
    return
  }
  topic, err := th.topicService.CreateTopic(c.Request.Context(), req)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, topic)
}

func (th *TopicHandler) Update(c *gin.Context) {
  topicID, err := parseTopicID(c)
  if err != nil {
    RespondError(c, err)
    return
  }
  var req services.TopicUpdateInput
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apierr.Validation(fmt.Errorf("Invalid request body"), nil))
    return
  }
  topic, err := th.topicService.UpdateTopic(c.Request.Context(), topicID, req)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, topic)
}

func (th *TopicHandler) Delete(c *gin.Context) {
  topicID, err := parseTopicID(c)
  if err != nil {
    RespondError(c, err)
    return
  }
  if err := th.topicService.DeleteTopic(c.Request.Context(), topicID); err != nil {
    RespondError(c, err)
    return
  }
  c.Status(http.StatusNoContent)
}
