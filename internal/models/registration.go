package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactField names the field that identifies an attendee uniquely.
type ContactField string

const (
	ContactEmail ContactField = "email"
	ContactPhone ContactField = "phone"
)

// Registration is a stored yoga camp attendee registration.
type Registration struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	ContactKey string    `json:"contact_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// Input is a submission as it arrives over the wire, before validation.
type Input struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Result is the success payload returned by the registration endpoint.
type Result struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	AlreadyRegistered bool   `json:"already_registered"`
	Name              string `json:"name,omitempty"`
}
