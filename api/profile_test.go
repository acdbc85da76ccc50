package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestProfileHandler_update(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := testUser()
	updated := *user
	updated.FirstName = "Adaeze"

	mockService := &MockAuthUseCase{}
	handler := NewProfileHandler(mockService)

	w := httptest.NewRecorder()
	c := authedContext(w, user)
	c.Request = httptest.NewRequest("PATCH", "/api/v1/profile", strings.NewReader(`{"firstName":"Adaeze"}`))

	mockService.On("UpdateProfile", c.Request.Context(), user.ID, mock.MatchedBy(func(upd domain.ProfileUpdate) bool {
		return upd.FirstName != nil && *upd.FirstName == "Adaeze" && upd.LastName == nil
	})).Return(true).Once()
	mockService.On("GetUserByID", c.Request.Context(), user.ID).Return(&updated).Once()

	handler.update(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"firstName":"Adaeze"`)
	mockService.AssertExpectations(t)
}

func TestProfileHandler_update_RejectsProtectedFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, body := range []string{
		`{"email":"evil@example.com"}`,
		`{"password":"hunter22hunter"}`,
		`{"membershipTier":"Platinum"}`,
	} {
		t.Run(body, func(t *testing.T) {
			mockService := &MockAuthUseCase{}
			handler := NewProfileHandler(mockService)

			w := httptest.NewRecorder()
			c := authedContext(w, testUser())
			c.Request = httptest.NewRequest("PATCH", "/api/v1/profile", strings.NewReader(body))

			handler.update(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			mockService.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProfileHandler_update_Failure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := testUser()
	mockService := &MockAuthUseCase{}
	handler := NewProfileHandler(mockService)

	w := httptest.NewRecorder()
	c := authedContext(w, user)
	c.Request = httptest.NewRequest("PATCH", "/api/v1/profile", strings.NewReader(`{"nationality":"NG"}`))

	mockService.On("UpdateProfile", c.Request.Context(), user.ID, mock.Anything).Return(false).Once()

	handler.update(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), MsgProfileUpdateFailed)
}

func TestProfileHandler_get(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := testUser()
	mockService := &MockAuthUseCase{}
	handler := NewProfileHandler(mockService)

	w := httptest.NewRecorder()
	c := authedContext(w, user)
	c.Request = httptest.NewRequest("GET", "/api/v1/profile", nil)

	mockService.On("GetUserByID", c.Request.Context(), user.ID).Return(user).Once()

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.Email)
	assert.NotContains(t, w.Body.String(), "password")
}
