package models

import (
	"time"

	"github.com/nimeshabuddhika/account-service-go/pkg/views"
)

// Account maps to table `accounts`
type Account struct {
	ID          int64
	Name        string
	Email       string
	Address     string
	PhoneNumber *string
	DateJoined  time.Time
}

func (a Account) ToView() views.AccountResponse {
	return views.AccountResponse{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Address:     a.Address,
		PhoneNumber: a.PhoneNumber,
		DateJoined:  a.DateJoined.Format(views.DateLayout),
	}
}
