package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/city-issue-service/internal/api/dto"
	"github.com/spec-kit/city-issue-service/internal/domain"
	"github.com/spec-kit/city-issue-service/internal/repository"
	"github.com/spec-kit/city-issue-service/internal/service"
	apperrors "github.com/spec-kit/city-issue-service/pkg/util/errorutil"
)

// IssuesHandler manages issue intake and lifecycle endpoints.
type IssuesHandler struct {
	intake      *service.IntakeService
	predictions *service.PredictionService
	validate    *validator.Validate
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(intake *service.IntakeService, predictions *service.PredictionService) *IssuesHandler {
	return &IssuesHandler{
		intake:      intake,
		predictions: predictions,
		validate:    validator.New(),
	}
}

// CreateIssue POST /api/issues.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}

	result, err := h.intake.CreateIssue(c.UserContext(), service.IntakeInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      domain.IssueCategory(req.Category),
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Address:       req.Address,
		ReportedBy:    req.ReportedBy,
		ReporterEmail: req.ReporterEmail,
	})
	if err != nil {
		return err
	}

	resp := dto.FromIssue(result.Issue)
	resp.DuplicateOfIDs = result.DuplicateIDs
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// GetIssue GET /api/issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	issue, err := h.intake.GetIssue(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIssue(issue)})
}

// ListIssues GET /api/issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	filter := repository.IssueFilter{
		Limit:  parseIntQuery(c, "page_size", 20),
		Offset: parseIntQuery(c, "page", 0) * parseIntQuery(c, "page_size", 20),
	}
	if status := c.Query("status"); status != "" {
		parsed := domain.IssueStatus(status)
		if !parsed.Valid() {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
		filter.Status = &parsed
	}
	if category := c.Query("category"); category != "" {
		parsed := domain.IssueCategory(category)
		if !parsed.Valid() {
			return apperrors.NewValidationError("unknown category", map[string]any{"category": category})
		}
		filter.Category = &parsed
	}

	issues, err := h.intake.ListIssues(c.UserContext(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.IssueResponse, 0, len(issues))
	for i := range issues {
		items = append(items, dto.FromIssue(&issues[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateStatus PATCH /api/issues/:id/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}

	issue, err := h.intake.UpdateStatus(c.UserContext(), c.Params("id"), domain.IssueStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIssue(issue)})
}

// GetPrediction GET /api/issues/:id/prediction.
func (h *IssuesHandler) GetPrediction(c *fiber.Ctx) error {
	issueID := c.Params("id")
	hours, ok, err := h.predictions.Prediction(c.UserContext(), issueID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotFound("prediction", map[string]any{"issue_id": issueID})
	}
	return c.JSON(fiber.Map{"data": dto.PredictionResponse{
		IssueID:        issueID,
		PredictedHours: hours,
	}})
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	val := c.Query(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
