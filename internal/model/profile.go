package model

// Profile is a read-only view derived from answers. Fields come from
// questions that declare a ProfileField; it is never written back into an
// answer map.
type Profile struct {
	Email          string            `json:"email,omitempty"`
	SourceYear     int               `json:"sourceYear,omitempty"`
	Fields         map[string]string `json:"fields"`
	CompletedYears []int             `json:"completedYears"`
	Years          []YearProgress    `json:"years"`
}

// YearProgress summarises one year's questionnaire for the dashboard
type YearProgress struct {
	Year     int     `json:"year"`
	Title    string  `json:"title"`
	Answered int     `json:"answered"`
	Total    int     `json:"total"`
	Progress float64 `json:"progress"`
}
