package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/response"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFailWith(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   response.ErrCode
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
		{service.ErrAccountNotFound, http.StatusNotFound, response.ErrNotFound},
		{fmt.Errorf("start: %w", service.ErrSessionNotFound), http.StatusNotFound, response.ErrNotFound},
		{service.ErrTestCompleted, http.StatusBadRequest, response.ErrTestCompleted},
		{service.ErrInsufficientCredit, http.StatusBadRequest, response.ErrInsufficientCredit},
		{service.ErrExamInUse, http.StatusConflict, response.ErrDependencyExists},
		{service.ErrSelfDemotion, http.StatusBadRequest, response.ErrActionForbidden},
		{service.ErrInvalidAdminKey, http.StatusForbidden, response.ErrForbidden},
		{model.ErrCreditsBelowUsed, http.StatusBadRequest, response.ErrValidation},
		{service.ErrFileTooLarge, http.StatusBadRequest, response.ErrFileTooLarge},
		{fmt.Errorf("%w: timeout", service.ErrPaymentFailed), http.StatusBadGateway, response.ErrPaymentFailed},
		{service.ErrCheckoutMismatch, http.StatusForbidden, response.ErrForbidden},
		{errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			failWith(c, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body response.Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error == nil || body.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %s", body.Error, tt.code)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := map[string]bool{
		"12":  true,
		"0":   false,
		"-3":  false,
		"abc": false,
	}

	for raw, ok := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		id, got := parseID(c, "id")
		if got != ok {
			t.Errorf("parseID(%q) ok = %v, want %v", raw, got, ok)
		}
		if ok && id != 12 {
			t.Errorf("parseID(%q) = %d", raw, id)
		}
		if !ok && w.Code != http.StatusBadRequest {
			t.Errorf("parseID(%q) status = %d", raw, w.Code)
		}
	}
}
