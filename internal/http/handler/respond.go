package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danger-5344/templa-socialV2/internal/app/repository"
	"github.com/danger-5344/templa-socialV2/internal/app/service"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorResponse{Error: message, Code: code})
}

// requestError is a client error returned up the chain and rendered by
// ErrorHandler, so the handler that got it stops before any service call.
type requestError struct {
	status  int
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

func invalidInput(message string) error {
	return &requestError{status: fiber.StatusBadRequest, code: "INVALID_INPUT", message: message}
}

// bind parses the JSON body into dst and validates its struct tags.
// A non-nil error must be returned as-is by the caller.
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return invalidInput("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return invalidInput(validationMessage(fieldErrs))
		}
		return invalidInput(err.Error())
	}
	return nil
}

func validationMessage(errs validator.ValidationErrors) string {
	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "url", "http_url":
			messages = append(messages, field+" must be a valid URL")
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			messages = append(messages, field+" is invalid")
		}
	}
	return strings.Join(messages, "; ")
}

// writeError maps service and repository errors onto HTTP statuses.
// Unexpected errors are logged and hidden from the client.
func writeError(c *fiber.Ctx, logger *zap.Logger, op string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "FORBIDDEN", "you are not allowed to do this")
	case errors.Is(err, service.ErrConflict), errors.Is(err, repository.ErrDuplicate):
		return fail(c, fiber.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, repository.ErrPlatformNotFound),
		errors.Is(err, repository.ErrTrackingSetNotFound),
		errors.Is(err, repository.ErrTagNotFound),
		errors.Is(err, repository.ErrTemplateNotFound),
		errors.Is(err, repository.ErrNetworkNotFound),
		errors.Is(err, repository.ErrOfferLinkNotFound):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", notFoundMessage(err))
	case errors.Is(err, context.Canceled):
		return fail(c, fiber.StatusRequestTimeout, "CANCELED", "request canceled")
	}

	logger.Error("request failed", zap.String("op", op), zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, "INTERNAL", "internal error")
}

func notFoundMessage(err error) string {
	for _, sentinel := range []error{
		repository.ErrPlatformNotFound,
		repository.ErrTrackingSetNotFound,
		repository.ErrTagNotFound,
		repository.ErrTemplateNotFound,
		repository.ErrNetworkNotFound,
		repository.ErrOfferLinkNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "not found"
}

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func badID(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "INVALID_INPUT", "invalid id")
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// ErrorHandler renders errors that escape handlers and middleware in the
// same shape as handler responses.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		var re *requestError
		if errors.As(err, &re) {
			return fail(c, re.status, re.code, re.message)
		}
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fail(c, fe.Code, statusCode(fe.Code), fe.Message)
		}
		return writeError(c, logger, c.Path(), err)
	}
}

// statusCode turns 404 into "NOT_FOUND".
func statusCode(status int) string {
	msg := utils.StatusMessage(status)
	if msg == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(msg, " ", "_"))
}
