package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/city-issue-service/internal/api/dto"
	"github.com/spec-kit/city-issue-service/internal/repository"
)

// DepartmentsHandler exposes department reference data.
type DepartmentsHandler struct {
	departments repository.DepartmentRepository
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(departments repository.DepartmentRepository) *DepartmentsHandler {
	return &DepartmentsHandler{departments: departments}
}

// ListDepartments GET /api/departments.
func (h *DepartmentsHandler) ListDepartments(c *fiber.Ctx) error {
	departments, err := h.departments.List(c.UserContext())
	if err != nil {
		return err
	}

	items := make([]dto.DepartmentResponse, 0, len(departments))
	for _, dept := range departments {
		items = append(items, dto.DepartmentResponse{
			ID:                 dept.ID,
			Name:               dept.Name,
			Emoji:              dept.Emoji,
			AvgResolutionHours: dept.AvgResolutionHours,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
