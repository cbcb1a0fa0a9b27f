package templates

import (
	"context"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"
)

// DefaultSeed returns the built-in templates: one default per (type, channel) the
// descriptors need, plus the company-b birthday email override.
func DefaultSeed() []models.TemplateRecord {
	return []models.TemplateRecord{
		{
			Type:    models.HappyBirthday,
			Channel: models.ChannelEmail,
			Template: models.Template{
				Subject: "Happy Birthday {{firstName}}",
				Content: "{{companyName}} is wishing you a happy birthday",
			},
		},
		{
			Type:    models.HappyBirthday,
			Channel: models.ChannelUI,
			Template: models.Template{
				Content: "Happy Birthday {{firstName}}",
			},
		},
		{
			Type:    models.MonthlyPayslip,
			Channel: models.ChannelEmail,
			Template: models.Template{
				Subject: "Your {{payPeriod}} Payslip is Ready - {{payslipId}}",
				Content: "Dear {{firstName}},\n\n" +
					"Your payslip for {{payPeriod}} is now available.\n\n" +
					"Gross Salary: {{salary}}\n\n" +
					"Please download your payslip from the HR portal.\n\n" +
					"Best regards,\n{{companyName}} Payroll Team",
			},
		},
		{
			Type:    models.LeaveBalanceReminder,
			Channel: models.ChannelUI,
			Template: models.Template{
				Content: "Hi {{firstName}}! You have {{leaveBalance}} leave days remaining.",
			},
		},
		{
			Type:      models.HappyBirthday,
			Channel:   models.ChannelEmail,
			CompanyID: "company-b",
			Template: models.Template{
				Subject: "Important: {{firstName}}, Your Birthday is Coming Up!",
				Content: "Dear {{firstName}},\n\n" +
					"The entire team at {{companyName}} wishes you a wonderful {{age}}th birthday!\n\n" +
					"Warm regards,\nThe {{companyName}} Team",
			},
		},
	}
}

// Seed upserts every record. Re-running it leaves one record per triple.
func Seed(ctx context.Context, store Store, records []models.TemplateRecord) error {
	for _, rec := range records {
		if err := store.Upsert(ctx, rec); err != nil {
			return errors.NewTemplateStoreFailedError("seed", err)
		}
	}
	return nil
}

// ChannelRequirement is the part of a notification descriptor seeding cares about.
type ChannelRequirement interface {
	Type() models.NotificationType
	DefaultChannels() []models.ChannelType
}

// MissingDefault is a (type, channel) pair with no default template.
type MissingDefault struct {
	Type    models.NotificationType
	Channel models.ChannelType
}

// MissingDefaults lists the default channels of each descriptor that records lack a default for.
func MissingDefaults[D ChannelRequirement](descriptors []D, records []models.TemplateRecord) []MissingDefault {
	have := make(map[MissingDefault]bool, len(records))
	for _, rec := range records {
		if rec.IsDefault() {
			have[MissingDefault{rec.Type, rec.Channel}] = true
		}
	}

	var missing []MissingDefault
	for _, d := range descriptors {
		for _, ch := range d.DefaultChannels() {
			pair := MissingDefault{d.Type(), ch}
			if !have[pair] {
				missing = append(missing, pair)
			}
		}
	}
	return missing
}
