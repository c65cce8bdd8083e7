package model

import "time"

// User is an account that owns questionnaires and documents
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name,omitempty" bson:"name,omitempty"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// SignupResponse is returned after an account is created
type SignupResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}
