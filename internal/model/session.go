package model

import "time"

// SaveStatus reports the outcome of the most recent background save
type SaveStatus struct {
	Pending     bool       `json:"pending"`
	LastSavedAt *time.Time `json:"lastSavedAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

// SessionState is the client view of one user's questionnaire for one year
type SessionState struct {
	Year            int        `json:"year"`
	Cursor          int        `json:"cursor"`
	Total           int        `json:"total"`
	Progress        float64    `json:"progress"` // 0-1, over authored questions
	Complete        bool       `json:"complete"`
	Question        *Question  `json:"question,omitempty"`
	Answers         AnswerMap  `json:"answers"`
	HydrationFailed bool       `json:"hydrationFailed,omitempty"`
	Save            SaveStatus `json:"save"`
}

// SaveEvent is pushed to connected clients when a background save finishes
type SaveEvent struct {
	Year    int       `json:"year"`
	OK      bool      `json:"ok"`
	Error   string    `json:"error,omitempty"`
	SavedAt time.Time `json:"savedAt"`
}
