package inventory

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ErrorPayload is the JSON body of every API error.
type ErrorPayload struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail mirrors the fields of a rich error.
type ErrorDetail struct {
	Category string         `json:"category"`
	Code     int            `json:"code"`
	TextCode string         `json:"text_code,omitempty"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StatusForCategory maps an error category to an HTTP status.
func StatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// AsRichError normalizes any error into a rich error.
func AsRichError(err error) *goerrors.Error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		category := goerrors.CategoryInternal
		switch {
		case fe.Code == fiber.StatusNotFound:
			category = goerrors.CategoryNotFound
		case fe.Code == fiber.StatusMethodNotAllowed, fe.Code >= 400 && fe.Code < 500:
			category = goerrors.CategoryBadInput
		}
		return goerrors.New(fe.Message, category).WithCode(fe.Code)
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
		WithCode(goerrors.CodeInternal)
}

// NewErrorHandler returns a fiber error handler that renders rich errors as
// JSON. Internal error messages are not sent to clients.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	_, logger = ResolveLogger("http.errors", nil, logger)
	return func(c *fiber.Ctx, err error) error {
		richErr := AsRichError(err)

		status := StatusForCategory(richErr.Category)
		if richErr.Code >= 400 && richErr.Code < 600 {
			status = richErr.Code
		}

		detail := ErrorDetail{
			Category: fmt.Sprint(richErr.Category),
			Code:     status,
			TextCode: richErr.TextCode,
			Message:  richErr.Message,
			Metadata: richErr.Metadata,
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
			if richErr.TextCode != TextCodeSchemaNotReady {
				detail.Message = "An unexpected server error occurred"
				detail.Metadata = nil
			}
		} else {
			logger.Debug("request rejected",
				"method", c.Method(),
				"path", c.Path(),
				"category", richErr.Category,
				"text_code", richErr.TextCode,
			)
		}

		return c.Status(status).JSON(ErrorPayload{Error: detail})
	}
}
