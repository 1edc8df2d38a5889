package domain

// Department represents a municipal unit that resolves issues. Reference data
// owned by an external administrative process; read-only here.
type Department struct {
	ID                 int
	Name               string
	Emoji              string
	AvgResolutionHours int
}
