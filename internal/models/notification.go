package models

import "time"

// Severity of a user-facing notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a short-lived message produced when a call resolves
type Notification struct {
	Id        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Digest    string    `json:"digest,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
