package domain

import (
	"fmt"
	"time"
)

// IssueStatus enumerates lifecycle states for reported issues.
type IssueStatus string

const (
	IssueStatusReported   IssueStatus = "REPORTED"
	IssueStatusValidated  IssueStatus = "VALIDATED"
	IssueStatusAssigned   IssueStatus = "ASSIGNED"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusResolved   IssueStatus = "RESOLVED"
	IssueStatusClosed     IssueStatus = "CLOSED"
)

// statusOrder defines forward progression through the lifecycle.
var statusOrder = map[IssueStatus]int{
	IssueStatusReported:   0,
	IssueStatusValidated:  1,
	IssueStatusAssigned:   2,
	IssueStatusInProgress: 3,
	IssueStatusResolved:   4,
	IssueStatusClosed:     5,
}

// Valid reports whether the status is a known lifecycle state.
func (s IssueStatus) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// CanTransitionTo reports whether moving to next is a legal forward
// transition. Skipping ahead is allowed, moving backwards is not.
func (s IssueStatus) CanTransitionTo(next IssueStatus) bool {
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// IssueCategory enumerates recognized report categories.
type IssueCategory string

const (
	CategoryPothole        IssueCategory = "POTHOLE"
	CategoryStreetlight    IssueCategory = "STREETLIGHT"
	CategoryGraffiti       IssueCategory = "GRAFFITI"
	CategoryTrash          IssueCategory = "TRASH"
	CategoryWaterLeak      IssueCategory = "WATER_LEAK"
	CategorySidewalkDamage IssueCategory = "SIDEWALK_DAMAGE"
	CategoryOther          IssueCategory = "OTHER"
)

// Valid reports whether the category is part of the closed enumeration.
func (c IssueCategory) Valid() bool {
	switch c {
	case CategoryPothole, CategoryStreetlight, CategoryGraffiti, CategoryTrash,
		CategoryWaterLeak, CategorySidewalkDamage, CategoryOther:
		return true
	}
	return false
}

// DefaultPriority is assigned to issues created without an explicit priority.
const DefaultPriority = 3

// Issue is the aggregate for citizen-reported municipal issues.
type Issue struct {
	ID            string
	Title         string
	Description   string
	Category      IssueCategory
	Status        IssueStatus
	Priority      int
	Latitude      float64
	Longitude     float64
	Address       string
	ReportedBy    string
	ReporterEmail string
	DepartmentID  *int
	WorkerID      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidateCoordinates checks a WGS-84 point for plausibility.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	return nil
}
