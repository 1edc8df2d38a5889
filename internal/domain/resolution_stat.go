package domain

// HistoricalResolutionStat aggregates past resolution times for a
// (department, category) pair. Maintained by an external analytics job.
type HistoricalResolutionStat struct {
	DepartmentID int
	Category     IssueCategory
	AvgHours     float64
	MedianHours  float64
	SampleCount  int
}
