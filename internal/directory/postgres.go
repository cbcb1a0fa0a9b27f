package directory

import (
	"context"
	"database/sql"
	stderrors "errors"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"

	"github.com/lib/pq"
)

const (
	selectUserQuery = `SELECT id, first_name, last_name, email, phone, company_id, subscribe_channels, date_of_birth, salary, leave_balance
		FROM users WHERE id = $1`

	selectCompanyQuery = `SELECT id, name, subscribe_channels FROM companies WHERE id = $1`
)

// Postgres reads users and companies from the users and companies tables.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) GetUser(ctx context.Context, userID string) (models.User, error) {
	var (
		u        models.User
		phone    sql.NullString
		channels pq.StringArray
		dob      sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, selectUserQuery, userID).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &phone, &u.CompanyID,
		&channels, &dob, &u.Salary, &u.LeaveBalance,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return models.User{}, errors.NewNotFoundError("User", userID)
		}
		return models.User{}, errors.NewInternalError("user lookup failed", err)
	}

	u.Phone = phone.String
	u.SubscribeChannels = toChannels(channels)
	if dob.Valid {
		t := dob.Time
		u.DateOfBirth = &t
	}
	return u, nil
}

func (p *Postgres) GetCompany(ctx context.Context, companyID string) (models.Company, error) {
	var (
		c        models.Company
		channels pq.StringArray
	)
	err := p.db.QueryRowContext(ctx, selectCompanyQuery, companyID).Scan(&c.ID, &c.Name, &channels)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return models.Company{}, errors.NewNotFoundError("Company", companyID)
		}
		return models.Company{}, errors.NewInternalError("company lookup failed", err)
	}

	c.SubscribeChannels = toChannels(channels)
	return c, nil
}

func toChannels(in []string) []models.ChannelType {
	out := make([]models.ChannelType, 0, len(in))
	for _, s := range in {
		out = append(out, models.ChannelType(s))
	}
	return out
}
