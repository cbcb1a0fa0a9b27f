package directory

import (
	"context"
	"time"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"
)

// Static serves a fixed set of users and companies from memory.
type Static struct {
	users     map[string]models.User
	companies map[string]models.Company
}

func NewStatic(users []models.User, companies []models.Company) *Static {
	s := &Static{
		users:     make(map[string]models.User, len(users)),
		companies: make(map[string]models.Company, len(companies)),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	for _, c := range companies {
		s.companies[c.ID] = c
	}
	return s
}

func (s *Static) GetUser(_ context.Context, userID string) (models.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, errors.NewNotFoundError("User", userID)
	}
	return u, nil
}

func (s *Static) GetCompany(_ context.Context, companyID string) (models.Company, error) {
	c, ok := s.companies[companyID]
	if !ok {
		return models.Company{}, errors.NewNotFoundError("Company", companyID)
	}
	return c, nil
}

func birthday(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// Fixture returns the demo directory used by the memory backend.
func Fixture() *Static {
	return NewStatic(FixtureUsers(), FixtureCompanies())
}

func FixtureCompanies() []models.Company {
	return []models.Company{
		{ID: "company-a", Name: "Company A", SubscribeChannels: []models.ChannelType{models.ChannelEmail, models.ChannelUI}},
		{ID: "company-b", Name: "Company B", SubscribeChannels: []models.ChannelType{models.ChannelUI}},
	}
}

func FixtureUsers() []models.User {
	return []models.User{
		{
			ID: "user-1", FirstName: "John", LastName: "Doe",
			Email: "john.doe@companyA.com", CompanyID: "company-a",
			SubscribeChannels: []models.ChannelType{models.ChannelEmail},
			LeaveBalance:      25, DateOfBirth: birthday(1990, time.March, 15), Salary: 5000,
		},
		{
			ID: "user-2", FirstName: "Jane", LastName: "Smith",
			Email: "jane.smith@companyA.com", CompanyID: "company-a",
			SubscribeChannels: []models.ChannelType{models.ChannelUI},
			LeaveBalance:      12, DateOfBirth: birthday(1985, time.July, 22), Salary: 6000,
		},
		{
			ID: "user-3", FirstName: "Peter", LastName: "Jones",
			Email: "peter.jones@companyB.com", CompanyID: "company-b",
			SubscribeChannels: []models.ChannelType{},
			LeaveBalance:      30, DateOfBirth: birthday(1988, time.November, 8), Salary: 7000,
		},
		{
			ID: "user-4", FirstName: "Alice", LastName: "Johnson",
			Email: "alice.johnson@companyA.com", CompanyID: "company-a",
			SubscribeChannels: []models.ChannelType{models.ChannelEmail, models.ChannelUI},
			LeaveBalance:      8, DateOfBirth: birthday(1992, time.September, 12), Salary: 8000,
		},
		{
			ID: "user-5", FirstName: "Bob", LastName: "Wilson",
			Email: "bob.wilson@companyB.com", CompanyID: "company-b",
			SubscribeChannels: []models.ChannelType{models.ChannelUI},
			LeaveBalance:      20, DateOfBirth: birthday(1987, time.January, 30), Salary: 9000,
		},
	}
}
