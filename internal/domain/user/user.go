// Package user defines the contract with the remote user service, which owns
// accounts, wallets, and delivery addresses.
package user

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when the user service has no record for the ID.
var ErrNotFound = errors.New("user not found")

// Role is the account role assigned by the user service.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
)

// User is the projection of a user service account consumed here.
type User struct {
	ID            string
	Name          string
	Role          Role
	WalletBalance decimal.Decimal
}

// Address is a delivery address owned by the user service. Orders carry only
// the address ID; resolution happens on demand through the client.
type Address struct {
	ID      string
	UserID  string
	Street  string
	City    string
	ZipCode string
}

// Client is the synchronous HTTP contract with the user service. All calls
// propagate the caller's context; there is no retry policy, a failed call
// surfaces immediately.
type Client interface {
	GetByID(ctx context.Context, userID string) (*User, error)
	// DebitWallet decreases the user's wallet balance by amount. Any error
	// means the balance must be assumed unchanged.
	DebitWallet(ctx context.Context, userID string, amount decimal.Decimal) error
	GetAddressByID(ctx context.Context, addressID string) (*Address, error)
}
