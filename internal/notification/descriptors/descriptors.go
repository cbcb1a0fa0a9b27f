// Package descriptors defines the supported notification types: their default
// channels and the values each one exposes to templates.
package descriptors

import (
	"fmt"
	"time"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"
)

// Descriptor describes one notification type.
type Descriptor interface {
	Type() models.NotificationType
	// DefaultChannels is ordered; dispatch preserves this order.
	DefaultChannels() []models.ChannelType
	TemplateContext(user models.User, company models.Company) map[string]any
}

// Registry is a read-only lookup of descriptors by type.
type Registry struct {
	byType map[models.NotificationType]Descriptor
	order  []Descriptor
}

// NewRegistry registers the built-in descriptors. now supplies the clock for date-based values.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return newRegistry(
		&happyBirthday{now: now},
		&monthlyPayslip{now: now},
		leaveBalanceReminder{},
	)
}

func newRegistry(ds ...Descriptor) *Registry {
	r := &Registry{byType: make(map[models.NotificationType]Descriptor, len(ds))}
	for _, d := range ds {
		r.byType[d.Type()] = d
		r.order = append(r.order, d)
	}
	return r
}

// Get returns the descriptor for t or a NOT_FOUND error.
func (r *Registry) Get(t models.NotificationType) (Descriptor, error) {
	d, ok := r.byType[t]
	if !ok {
		return nil, errors.NewNotFoundError("Notification type", string(t))
	}
	return d, nil
}

// All returns the descriptors in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Types returns the registered type names.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.order))
	for _, d := range r.order {
		out = append(out, string(d.Type()))
	}
	return out
}

func baseContext(user models.User, company models.Company) map[string]any {
	return map[string]any{
		"firstName":   user.FirstName,
		"lastName":    user.LastName,
		"fullName":    user.FullName(),
		"companyName": company.Name,
	}
}

// ==========================
// happy-birthday
// ==========================

type happyBirthday struct {
	now func() time.Time
}

func (*happyBirthday) Type() models.NotificationType { return models.HappyBirthday }

func (*happyBirthday) DefaultChannels() []models.ChannelType {
	return []models.ChannelType{models.ChannelEmail, models.ChannelUI}
}

func (d *happyBirthday) TemplateContext(user models.User, company models.Company) map[string]any {
	ctx := baseContext(user, company)
	ctx["age"] = ageAt(user.DateOfBirth, d.now())
	return ctx
}

// ageAt returns completed years on the given day, or 0 without a date of birth.
func ageAt(dob *time.Time, today time.Time) int {
	if dob == nil {
		return 0
	}
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

// ==========================
// monthly-payslip
// ==========================

type monthlyPayslip struct {
	now func() time.Time
}

func (*monthlyPayslip) Type() models.NotificationType { return models.MonthlyPayslip }

func (*monthlyPayslip) DefaultChannels() []models.ChannelType {
	return []models.ChannelType{models.ChannelEmail}
}

func (d *monthlyPayslip) TemplateContext(user models.User, company models.Company) map[string]any {
	period := d.now()
	ctx := baseContext(user, company)
	ctx["salary"] = user.Salary
	ctx["payPeriod"] = period.Format("January 2006")
	ctx["payslipId"] = fmt.Sprintf("%s-%s", user.ID, period.Format("200601"))
	return ctx
}

// ==========================
// leave-balance-reminder
// ==========================

type leaveBalanceReminder struct{}

func (leaveBalanceReminder) Type() models.NotificationType { return models.LeaveBalanceReminder }

func (leaveBalanceReminder) DefaultChannels() []models.ChannelType {
	return []models.ChannelType{models.ChannelUI}
}

func (leaveBalanceReminder) TemplateContext(user models.User, company models.Company) map[string]any {
	ctx := baseContext(user, company)
	ctx["leaveBalance"] = user.LeaveBalance
	return ctx
}
