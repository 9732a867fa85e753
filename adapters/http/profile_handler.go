package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	profileUC "github.com/khoahotran/profile-service/internal/application/usecase/profile"
	"github.com/khoahotran/profile-service/pkg/apperror"
	"github.com/khoahotran/profile-service/pkg/logger"
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		logger:         log,
	}
}

func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("Invalid request body.", err))
		return
	}

	input := profileUC.CreateProfileInput{
		Name:  req.Name,
		Email: req.Email,
		Bio:   req.Bio,
	}
	output, err := h.profileUseCase.ExecuteCreateProfile(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, ToProfileDTO(output.Profile))
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profileID, ok := profileIDParam(c)
	if !ok {
		return
	}

	input := profileUC.GetProfileInput{ProfileID: profileID}
	output, err := h.profileUseCase.ExecuteGetProfile(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ToProfileDTO(output.Profile))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	profileID, ok := profileIDParam(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("Invalid request body.", err))
		return
	}

	input := profileUC.UpdateProfileInput{
		ProfileID: profileID,
		Patch:     req.ToDomainPatch(),
	}
	output, err := h.profileUseCase.ExecuteUpdateProfile(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ToProfileDTO(output.Profile))
}

func profileIDParam(c *gin.Context) (int64, bool) {
	profileID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperror.NewInvalidInput("Profile id must be an integer.", err))
		return 0, false
	}
	return profileID, true
}
