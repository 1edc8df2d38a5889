package dto

import (
	"time"

	"github.com/spec-kit/city-issue-service/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Description   string  `json:"description"`
	Category      string  `json:"category" validate:"required"`
	Latitude      float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address       string  `json:"address"`
	ReportedBy    string  `json:"reported_by" validate:"required"`
	ReporterEmail string  `json:"reporter_email" validate:"omitempty,email"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes"`
}

// IssueResponse represents a single issue.
type IssueResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	Priority       int       `json:"priority"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Address        string    `json:"address"`
	ReportedBy     string    `json:"reported_by"`
	ReporterEmail  string    `json:"reporter_email,omitempty"`
	DepartmentID   *int      `json:"department_id,omitempty"`
	WorkerID       *string   `json:"worker_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	DuplicateOfIDs []string  `json:"duplicate_candidate_ids,omitempty"`
}

// PredictionResponse carries the cached resolution estimate.
type PredictionResponse struct {
	IssueID        string  `json:"issue_id"`
	PredictedHours float64 `json:"predicted_hours"`
}

// AddressResponse mirrors resolved geocoding fields.
type AddressResponse struct {
	DisplayName string `json:"display_name"`
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
}

// DepartmentResponse represents reference data.
type DepartmentResponse struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Emoji              string `json:"emoji"`
	AvgResolutionHours int    `json:"avg_resolution_hours"`
}

// FromIssue maps a domain issue onto the response shape.
func FromIssue(issue *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:            issue.ID,
		Title:         issue.Title,
		Description:   issue.Description,
		Category:      string(issue.Category),
		Status:        string(issue.Status),
		Priority:      issue.Priority,
		Latitude:      issue.Latitude,
		Longitude:     issue.Longitude,
		Address:       issue.Address,
		ReportedBy:    issue.ReportedBy,
		ReporterEmail: issue.ReporterEmail,
		DepartmentID:  issue.DepartmentID,
		WorkerID:      issue.WorkerID,
		CreatedAt:     issue.CreatedAt,
		UpdatedAt:     issue.UpdatedAt,
	}
}
