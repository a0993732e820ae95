package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/response"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	"github.com/gin-gonic/gin"
)

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// failWith maps a service error onto the response envelope. Anything not
// recognised is attached to the context for the request logger and answered
// with a generic 500.
func failWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)

	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, err.Error())

	case errors.Is(err, service.ErrTestCompleted):
		response.Fail(c, http.StatusBadRequest, response.ErrTestCompleted)
	case errors.Is(err, service.ErrInsufficientCredit):
		response.Fail(c, http.StatusBadRequest, response.ErrInsufficientCredit)
	case errors.Is(err, service.ErrEmailTaken):
		response.Fail(c, http.StatusBadRequest, response.ErrEmailTaken)
	case errors.Is(err, service.ErrExamInUse):
		response.FailWithMessage(c, http.StatusConflict, response.ErrDependencyExists, err.Error())

	case errors.Is(err, service.ErrAdminExists),
		errors.Is(err, service.ErrSelfDemotion):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrActionForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidAdminKey):
		response.FailWithMessage(c, http.StatusForbidden, response.ErrForbidden, err.Error())

	case errors.Is(err, model.ErrCreditsBelowUsed),
		errors.Is(err, model.ErrInvalidCreditAmount):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, err.Error())

	case errors.Is(err, service.ErrUnsupportedFileType):
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
	case errors.Is(err, service.ErrFileTooLarge):
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)

	case errors.Is(err, service.ErrInvalidPlan):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPlan)
	case errors.Is(err, service.ErrPaymentNotCompleted):
		response.Fail(c, http.StatusBadRequest, response.ErrPaymentPending)
	case errors.Is(err, service.ErrCheckoutMismatch):
		response.FailWithMessage(c, http.StatusForbidden, response.ErrForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidWebhook):
		response.Fail(c, http.StatusBadRequest, response.ErrWebhookSignature)
	case errors.Is(err, service.ErrPaymentFailed):
		_ = c.Error(err)
		response.Fail(c, http.StatusBadGateway, response.ErrPaymentFailed)

	default:
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
