package models

import "time"

// User is a notification recipient as returned by the directory.
type User struct {
	ID                string        `json:"id"`
	FirstName         string        `json:"firstName"`
	LastName          string        `json:"lastName"`
	Email             string        `json:"email"`
	Phone             string        `json:"phone,omitempty"`
	CompanyID         string        `json:"companyId"`
	SubscribeChannels []ChannelType `json:"subscribeChannels"`
	DateOfBirth       *time.Time    `json:"dateOfBirth,omitempty"`
	Salary            float64       `json:"salary"`
	LeaveBalance      float64       `json:"leaveBalance"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Company is the recipient's employer.
type Company struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	SubscribeChannels []ChannelType `json:"subscribeChannels"`
}
