package api

import (
	"encoding/json"
	"net/http"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
	"github.com/gin-gonic/gin"
)

const MsgProfileUpdateFailed = "Profile update failed. Please try again."

type ProfileHandler struct {
	service auth.AuthUseCase
}

func NewProfileHandler(service auth.AuthUseCase) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.get)
	router.PATCH("", h.update)
}

func (h *ProfileHandler) get(c *gin.Context) {
	user, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": MsgNotAuthenticated})
		return
	}
	if fresh := h.service.GetUserByID(c.Request.Context(), user.ID); fresh != nil {
		user = fresh
	}
	c.JSON(http.StatusOK, user)
}

// update accepts only the profile allow-list. Any other field, such as email
// or password, rejects the whole request.
func (h *ProfileHandler) update(c *gin.Context) {
	user, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": MsgNotAuthenticated})
		return
	}

	var upd domain.ProfileUpdate
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.service.UpdateProfile(c.Request.Context(), user.ID, upd) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": MsgProfileUpdateFailed})
		return
	}

	fresh := h.service.GetUserByID(c.Request.Context(), user.ID)
	if fresh == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": MsgProfileUpdateFailed})
		return
	}
	c.JSON(http.StatusOK, fresh)
}
