package handlers

import (
  "fmt"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/relearn-backend/internal/apierr"
  "github.com/yungbote/relearn-backend/internal/services"
)

type ProfileHandler struct {
  profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
  return &ProfileHandler{profileService: profileService}
}

func (ph *ProfileHandler) Create(c *gin.Context) {
  var req services.ProfileSetupInput
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apierr.Validation(fmt.Errorf("Invalid request body"), nil))
    return
  }
  profile, err := ph.profileService.CreateProfile(c.Request.Context(), req)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, profile)
}

func (ph *ProfileHandler) Setup(c *gin.Context) {
  var req services.ProfileSetupInput
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apierr.Validation(fmt.Errorf("Invalid request body"), nil))
    return
  }
  profile, err := ph.profileService.UpsertProfile(c.Request.Context(), req)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, profile)
}

func (ph *ProfileHandler) Get(c *gin.Context) {
  profile, err := ph.profileService.GetProfile(c.Request.Context())
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, profile)
}
