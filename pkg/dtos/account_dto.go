package dtos

import (
	"time"

	"github.com/nimeshabuddhika/account-service-go/pkg/views"
)

// SeedResult is the JSON document written by cmd/seed when exporting the
// accounts it inserted.
type SeedResult struct {
	Accounts  []views.AccountResponse `json:"accounts"`
	Count     int                     `json:"count"`
	CreatedAt time.Time               `json:"createdAt"`
}
