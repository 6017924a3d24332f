package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"simopsbot/internal/app/agent"
	"simopsbot/internal/app/eval"
	"simopsbot/internal/app/ports"
	"simopsbot/internal/app/replay"
	"simopsbot/internal/domain/journal"
	"simopsbot/internal/domain/ops"
)

const (
	defaultListLimit = 20
	requestIDHeader  = "X-Request-ID"
)

var errInvalidJSON = errors.New("invalid json")

var validate = validator.New(validator.WithRequiredStructEnabled())

type Handler struct {
	RunUC    agent.UseCase
	ReplayUC replay.UseCase
	EvalUC   eval.Runner
	Runs     ports.RunRepository
	KPI      kpiSnapshotProvider
	Metrics  http.Handler

	// EvalDir, when set, receives one output directory per eval request.
	EvalDir string

	// AllowOrigin defaults to any origin.
	AllowOrigin string

	// DefaultProfile applies to run and eval requests that name none.
	DefaultProfile string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.AllowOrigin))

	api := s.Group("/api")
	api.POST("/runs", h.createRun)
	api.GET("/runs", h.listRuns)
	api.GET("/runs/:run_id", h.getRun)
	api.GET("/runs/:run_id/journal", h.journal)
	api.GET("/runs/:run_id/replay", h.replay)
	api.POST("/evals", h.createEval)

	s.GET("/ops/kpi", h.kpi)
	s.GET("/metrics", h.metrics())
}

type runRequest struct {
	Seed     int64       `json:"seed" validate:"gte=0"`
	Profile  string      `json:"profile" validate:"omitempty,oneof=rules proposals hypotheses verified guarded"`
	Incident string      `json:"incident" validate:"omitempty,oneof=api_bad_deploy db_saturation network_flaky"`
	Budget   *ops.Budget `json:"budget"`
}

type runResponse struct {
	Result     agent.Result `json:"result"`
	EventCount int          `json:"event_count"`
}

type journalResponse struct {
	RunID  string          `json:"run_id"`
	Events []journal.Event `json:"events"`
}

type evalRequest struct {
	Profile    string           `json:"profile" validate:"omitempty,oneof=rules proposals hypotheses verified guarded"`
	Seeds      []int64          `json:"seeds" validate:"required,min=1,max=500,unique,dive,gte=0"`
	Thresholds *eval.Thresholds `json:"thresholds"`
}

type evalResponse struct {
	EvalID string      `json:"eval_id"`
	Report eval.Report `json:"report"`
}

func (h Handler) createRun(c context.Context, ctx *app.RequestContext) {
	var body runRequest
	if err := decodeAndValidate(ctx, &body); err != nil {
		writeError(ctx, err)
		return
	}

	req := agent.Request{
		Seed:     body.Seed,
		Profile:  h.profile(body.Profile),
		Incident: ops.IncidentType(body.Incident),
	}
	if body.Budget != nil {
		req.Budget = *body.Budget
	}
	resp, err := h.RunUC.Execute(c, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, runResponse{Result: resp.Result, EventCount: len(resp.Events)})
}

func (h Handler) listRuns(c context.Context, ctx *app.RequestContext) {
	if h.Runs == nil {
		writeError(ctx, ports.ErrNotConfigured)
		return
	}
	limit := defaultListLimit
	if raw := string(ctx.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := h.Runs.List(c, limit)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if runs == nil {
		runs = []ports.RunRecord{}
	}
	ctx.JSON(consts.StatusOK, map[string]any{"runs": runs})
}

func (h Handler) getRun(c context.Context, ctx *app.RequestContext) {
	if h.Runs == nil {
		writeError(ctx, ports.ErrNotConfigured)
		return
	}
	rec, err := h.Runs.GetByRunID(c, runIDParam(ctx))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, rec)
}

func (h Handler) journal(c context.Context, ctx *app.RequestContext) {
	resp, err := h.ReplayUC.Execute(c, replay.Request{RunID: runIDParam(ctx)})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, journalResponse{RunID: resp.Summary.RunID, Events: resp.Events})
}

func (h Handler) replay(c context.Context, ctx *app.RequestContext) {
	resp, err := h.ReplayUC.Execute(c, replay.Request{RunID: runIDParam(ctx)})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp.Summary)
}

func (h Handler) createEval(c context.Context, ctx *app.RequestContext) {
	var body evalRequest
	if err := decodeAndValidate(ctx, &body); err != nil {
		writeError(ctx, err)
		return
	}

	evalID := newRequestID()
	req := eval.Request{Profile: h.profile(body.Profile), Seeds: body.Seeds, Thresholds: body.Thresholds}
	if h.EvalDir != "" {
		req.OutDir = filepath.Join(h.EvalDir, evalID)
	}
	report, err := h.EvalUC.Run(c, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, evalResponse{EvalID: evalID, Report: report})
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func (h Handler) metrics() app.HandlerFunc {
	if h.Metrics == nil {
		return func(_ context.Context, ctx *app.RequestContext) {
			writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "metrics exporter not configured")
		}
	}
	return adaptor.HertzHandler(h.Metrics)
}

func (h Handler) profile(requested string) string {
	if requested == "" {
		return h.DefaultProfile
	}
	return requested
}

func newRequestID() string {
	return uuid.NewString()
}

func runIDParam(ctx *app.RequestContext) string {
	return strings.TrimSpace(ctx.Param("run_id"))
}

func decodeAndValidate(ctx *app.RequestContext, out any) error {
	if err := decodeJSON(ctx, out); err != nil {
		return errInvalidJSON
	}
	return validate.Struct(out)
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, errInvalidJSON):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", err.Error())
	case errors.As(err, &verrs):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_request", validationMessage(verrs))
	case errors.Is(err, agent.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest),
		errors.Is(err, ops.ErrInvalidBudget),
		errors.Is(err, eval.ErrInvalidThresholds),
		errors.Is(err, eval.ErrNoResults):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ports.ErrNotConfigured):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "not_configured", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "cancelled", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func validationMessage(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Namespace()+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
