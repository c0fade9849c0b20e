package views

import (
	"time"

	"github.com/nimeshabuddhika/account-service-go/pkg"
)

// DateLayout is the wire format for the date_joined field.
const DateLayout = "2006-01-02"

// AccountRequest is the payload accepted by create and update. date_joined is
// optional on create and ignored on update.
type AccountRequest struct {
	Name        string  `json:"name" binding:"required,max=64"`
	Email       string  `json:"email" binding:"required,email,max=64"`
	Address     string  `json:"address" binding:"required,max=256"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=32"`
	DateJoined  string  `json:"date_joined" binding:"omitempty,datetime=2006-01-02"`
}

// AccountResponse is the wire representation of an account resource.
type AccountResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Address     string  `json:"address"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	DateJoined  string  `json:"date_joined"`
}

// AccountEvent is published to Kafka after a successful mutation.
type AccountEvent struct {
	Type      pkg.AccountEventType `json:"type"`
	TraceId   string               `json:"trace_id"`
	Timestamp time.Time            `json:"timestamp"`
	Account   AccountResponse      `json:"account"`
}
