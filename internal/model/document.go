package model

import "time"

// Document is the metadata of an uploaded tax document. Uploads are
// acknowledged and recorded, the file body itself is not retained.
type Document struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"userId" bson:"userId"`
	Year        int       `json:"year,omitempty" bson:"year,omitempty"`
	DocType     string    `json:"docType" bson:"docType"` // "W-2", "1099", "SSA-1099", ...
	FileName    string    `json:"fileName" bson:"fileName"`
	ContentType string    `json:"contentType" bson:"contentType"`
	Size        int64     `json:"size" bson:"size"`
	UploadedAt  time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

// ChecklistItem is one document the answers call for
type ChecklistItem struct {
	Name     string `json:"name"`
	Uploaded bool   `json:"uploaded"`
}
