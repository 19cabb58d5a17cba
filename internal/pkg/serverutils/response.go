package serverutils

import (
	"errors"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// SuccessResponse is the single success envelope all controllers use.
func SuccessResponse(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// ValidateRequest parses the request body into payload and runs struct
// validation. Failures come back as VALIDATION domain errors.
func ValidateRequest(ctx *fiber.Ctx, payload interface{}) error {
	if err := ctx.BodyParser(payload); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return apperrors.Validation(err.Error())
	}
	return nil
}

// UserIdFromCtx extracts the authenticated user id set by JwtMiddleware.
func UserIdFromCtx(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, apperrors.Validation("missing user identity")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Validation("malformed user identity")
	}
	return id, nil
}

// statusForKind maps domain error kinds to HTTP statuses.
func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation, apperrors.KindIndexOutOfRange:
		return fiber.StatusBadRequest
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindSessionPathMissing, apperrors.KindIllegalStatusTransition:
		return fiber.StatusConflict
	case apperrors.KindStoreBusy, apperrors.KindTransientService:
		return fiber.StatusServiceUnavailable
	case apperrors.KindAnalysisFailure, apperrors.KindDiscussionFailure:
		return fiber.StatusBadGateway
	case apperrors.KindStreamTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware converts errors bubbling out of handlers into
// the error envelope: a stable machine-readable kind, a human message,
// and the structured details recoverable errors carry.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			status := statusForKind(appErr.Kind)
			if status >= fiber.StatusInternalServerError {
				log.Error("http", appErr.Message, map[string]interface{}{
					"kind":  string(appErr.Kind),
					"path":  ctx.Path(),
					"error": err.Error(),
				})
			}
			body := fiber.Map{
				"status":  "error",
				"kind":    string(appErr.Kind),
				"message": appErr.Message,
			}
			if len(appErr.Details) > 0 {
				body["details"] = appErr.Details
			}
			return ctx.Status(status).JSON(body)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{
				"status":  "error",
				"message": fiberErr.Message,
			})
		}

		log.Error("http", "unhandled error", map[string]interface{}{
			"path":  ctx.Path(),
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "internal server error",
		})
	}
}
