package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgPasswordsMismatch = "Passwords do not match."
	MsgLoggedOut         = "Logged out"

	oauthStateCookie = "rm_oauth_state"
	oauthStateMaxAge = 600
)

var (
	errGoogleDisabled = errors.New("google sign-in is not configured")
	errStateMismatch  = errors.New("oauth state mismatch")
)

// GoogleVerifier turns a Google credential or authorization code into a
// verified profile.
type GoogleVerifier interface {
	VerifyCredential(ctx context.Context, rawIDToken string) (auth.GoogleProfile, error)
	Exchange(ctx context.Context, code string) (auth.GoogleProfile, error)
	AuthCodeURL(state string) string
}

type AuthHandler struct {
	service auth.AuthUseCase
	google  GoogleVerifier
	log     *zap.Logger
}

type registerRequest struct {
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Phone           *string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleRequest struct {
	Credential string `json:"credential"`
	Code       string `json:"code"`
	State      string `json:"state"`
}

// NewAuthHandler builds the auth routes. google may be nil, in which case the
// Google endpoint always fails with the generic Google message.
func NewAuthHandler(service auth.AuthUseCase, google GoogleVerifier, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{service: service, google: google, log: log}
}

func (h *AuthHandler) Register(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	router.POST("/register", h.register)
	router.POST("/login", h.login)
	router.GET("/google/url", h.googleURL)
	router.POST("/google", h.loginWithGoogle)
	router.GET("/session", requireAuth, h.session)
	router.POST("/logout", requireAuth, h.logout)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, domain.AuthResponse{Message: MsgPasswordsMismatch})
		return
	}

	resp := h.service.Register(c.Request.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	c.JSON(authStatus(resp, http.StatusCreated), resp)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := h.service.Login(c.Request.Context(), req.Email, req.Password)
	c.JSON(authStatus(resp, http.StatusOK), resp)
}

func (h *AuthHandler) loginWithGoogle(c *gin.Context) {
	var req googleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.verifyGoogle(c, req)
	if err != nil {
		h.log.Warn("google verification", zap.Error(err))
		c.JSON(http.StatusUnauthorized, domain.AuthResponse{Message: auth.MsgGoogleFailed})
		return
	}

	resp := h.service.LoginWithGoogle(c.Request.Context(), profile)
	c.JSON(authStatus(resp, http.StatusOK), resp)
}

// googleURL starts the redirect flow. The state is echoed back with the code
// and must match the cookie set here.
func (h *AuthHandler) googleURL(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errGoogleDisabled.Error()})
		return
	}
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/api/v1/auth", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"url": h.google.AuthCodeURL(state), "state": state})
}

func (h *AuthHandler) verifyGoogle(c *gin.Context, req googleRequest) (auth.GoogleProfile, error) {
	ctx := c.Request.Context()
	switch {
	case h.google == nil:
		return auth.GoogleProfile{}, errGoogleDisabled
	case req.Credential != "":
		return h.google.VerifyCredential(ctx, req.Credential)
	case req.Code != "":
		state, err := c.Cookie(oauthStateCookie)
		if err != nil || state == "" || state != req.State {
			return auth.GoogleProfile{}, errStateMismatch
		}
		return h.google.Exchange(ctx, req.Code)
	default:
		return auth.GoogleProfile{}, errors.New("credential or code is required")
	}
}

func (h *AuthHandler) session(c *gin.Context) {
	user, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": MsgNotAuthenticated})
		return
	}
	c.JSON(http.StatusOK, domain.AuthResponse{Success: true, User: user})
}

func (h *AuthHandler) logout(c *gin.Context) {
	user, token, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": MsgNotAuthenticated})
		return
	}
	h.service.Logout(c.Request.Context(), user.ID, token)
	c.JSON(http.StatusOK, domain.AuthResponse{Success: true, Message: MsgLoggedOut})
}

// authStatus maps a normalised auth result onto an HTTP status.
func authStatus(resp domain.AuthResponse, success int) int {
	if resp.Success {
		return success
	}
	switch resp.Message {
	case auth.MsgEmailExists, auth.MsgGoogleEmailConflict:
		return http.StatusConflict
	case auth.MsgInvalidCredentials, auth.MsgGoogleFailed:
		return http.StatusUnauthorized
	case auth.MsgRegistrationFailed, auth.MsgLoginFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
