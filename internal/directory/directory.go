// Package directory looks up notification recipients and their companies.
package directory

import (
	"context"

	"notification-dispatcher/internal/models"
)

// UserLookup fetches a user. Missing users yield a NOT_FOUND error.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
}

// CompanyLookup fetches a company. Missing companies yield a NOT_FOUND error.
type CompanyLookup interface {
	GetCompany(ctx context.Context, companyID string) (models.Company, error)
}

// Directory is both lookups together.
type Directory interface {
	UserLookup
	CompanyLookup
}
