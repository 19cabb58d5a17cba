package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/dto"
	"ai-docreview-be/internal/pkg/serverutils"
	"ai-docreview-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IReviewController interface {
	RegisterRoutes(r fiber.Router)
	StartAnalysis(ctx *fiber.Ctx) error
	Resume(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	ShowSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	CurrentFinding(ctx *fiber.Ctx) error
	ContinueFinding(ctx *fiber.Ctx) error
	GotoFinding(ctx *fiber.Ctx) error
	SkipRemaining(ctx *fiber.Ctx) error
	MarkEdited(ctx *fiber.Ctx) error
	SceneReview(ctx *fiber.Ctx) error
	Accept(ctx *fiber.Ctx) error
	Reject(ctx *fiber.Ctx) error
	Discuss(ctx *fiber.Ctx) error
	DiscussionHistory(ctx *fiber.Ctx) error
}

type reviewController struct {
	reviewService service.IReviewService
}

func NewReviewController(reviewService service.IReviewService) IReviewController {
	return &reviewController{
		reviewService: reviewService,
	}
}

func (c *reviewController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/review/v1")
	h.Use(serverutils.JwtMiddleware)

	h.Post("sessions", c.StartAnalysis)
	h.Get("sessions", c.ListSessions)
	h.Post("sessions/resume", c.Resume)
	h.Get("sessions/:id", c.ShowSession)
	h.Delete("sessions/:id", c.DeleteSession)

	h.Get("sessions/:id/findings/current", c.CurrentFinding)
	h.Post("sessions/:id/findings/continue", c.ContinueFinding)
	h.Post("sessions/:id/findings/goto/:index", c.GotoFinding)
	h.Post("sessions/:id/findings/skip", c.SkipRemaining)
	h.Post("sessions/:id/edited", c.MarkEdited)
	h.Post("sessions/:id/scene-review", c.SceneReview)

	h.Post("findings/:id/accept", c.Accept)
	h.Post("findings/:id/reject", c.Reject)
	h.Post("findings/:id/discuss", c.Discuss)
	h.Get("findings/:id/discussion", c.DiscussionHistory)
}

func (c *reviewController) StartAnalysis(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.StartAnalysisRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.reviewService.StartAnalysis(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusCreated, res)
}

func (c *reviewController) Resume(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ResumeSessionRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.reviewService.Resume(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *reviewController) ListSessions(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.reviewService.ListSessions(ctx.Context(), userId, ctx.Query("project_key"))
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *reviewController) ShowSession(ctx *fiber.Ctx) error {
	userId, sessionId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.reviewService.GetSessionDetail(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *reviewController) DeleteSession(ctx *fiber.Ctx) error {
	userId, sessionId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	if err := c.reviewService.DeleteSession(ctx.Context(), userId, sessionId); err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (c *reviewController) CurrentFinding(ctx *fiber.Ctx) error {
	userId, sessionId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.reviewService.CurrentFinding(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *reviewController) ContinueFinding(ctx *fiber.Ctx) error {
	userId, sessionId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.reviewService.ContinueFinding(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *reviewController) GotoFinding(ctx *fiber.Ctx) error {
	userId, sessionId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	index, err := strconv.Atoi(ctx.Params("index"))
	if err != nil {
		return apperrors.Validation("index must be a number")
	}

	res, err := c.reviewService.GotoFinding(ctx.Context(), userId, sessionId, index)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *reviewController) SkipRemaining(ctx *fiber.Ctx) error {
	userId, sessionId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SkipRemainingRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.reviewService.SkipRemaining(ctx.Context(), userId, sessionId, &req)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *reviewController) MarkEdited(ctx *fiber.Ctx) error {
	userId, sessionId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	if err := c.reviewService.MarkEdited(ctx.Context(), userId, sessionId); err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, fiber.Map{"marked": true})
}

func (c *reviewController) SceneReview(ctx *fiber.Ctx) error {
	userId, sessionId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.reviewService.ReviewForSceneChange(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *reviewController) Accept(ctx *fiber.Ctx) error {
	userId, findingId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	var req dto.AcceptFindingRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.reviewService.Accept(ctx.Context(), userId, findingId, req.Note)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *reviewController) Reject(ctx *fiber.Ctx) error {
	userId, findingId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	var req dto.RejectFindingRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.reviewService.Reject(ctx.Context(), userId, findingId, req.Reason)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

// Discuss streams the model's answer over SSE: token events while the
// stream runs, then one outcome event carrying the updated finding, or
// one error event if the turn failed.
func (c *reviewController) Discuss(ctx *fiber.Ctx) error {
	userId, findingId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	var req dto.DiscussFindingRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	// The fiber ctx is not valid inside the stream writer; everything
	// the goroutine needs is captured here.
	reviewService := c.reviewService
	message := req.Message

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		outcome, err := reviewService.Discuss(context.Background(), userId, findingId, message, func(token string) error {
			if err := writeSSE(w, "token", fiber.Map{"token": token}); err != nil {
				return err
			}
			return w.Flush()
		})
		if err != nil {
			kind := apperrors.KindOf(err)
			_ = writeSSE(w, "error", fiber.Map{"kind": string(kind), "message": err.Error()})
			_ = w.Flush()
			return
		}
		_ = writeSSE(w, "outcome", outcome)
		_ = w.Flush()
	}))
	return nil
}

func (c *reviewController) DiscussionHistory(ctx *fiber.Ctx) error {
	userId, findingId, err := identityAndParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.reviewService.GetDiscussionHistory(ctx.Context(), userId, findingId)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func identityAndParam(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.Validation("malformed id")
	}
	return userId, id, nil
}

func writeSSE(w *bufio.Writer, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
