package templates

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"notification-dispatcher/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_FindCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"type", "channel", "company_id", "subject", "content"}).
		AddRow("happy-birthday", "email", "company-b", "Override", "Dear {{firstName}}").
		AddRow("happy-birthday", "email", "", "Happy Birthday {{firstName}}", "{{companyName}} is wishing you a happy birthday")
	mock.ExpectQuery(regexp.QuoteMeta(findCandidatesQuery)).
		WithArgs("happy-birthday", "email", "company-b").
		WillReturnRows(rows)

	store := NewPostgresStore(db)
	records, err := store.FindCandidates(context.Background(), models.HappyBirthday, models.ChannelEmail, "company-b")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "company-b", records[0].CompanyID)
	assert.True(t, records[1].IsDefault())
	assert.Equal(t, models.ChannelEmail, records[1].Channel)
	assert.Equal(t, "Override", selectTemplate(records, "company-b").Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindCandidates_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(findCandidatesQuery)).
		WithArgs("happy-birthday", "ui", "company-a").
		WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresStore(db).FindCandidates(context.Background(), models.HappyBirthday, models.ChannelUI, "company-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPostgresStore_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(upsertTemplateQuery)).
		WithArgs("monthly-payslip", "email", "", "Subject", "Body").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresStore(db).Upsert(context.Background(), models.TemplateRecord{
		Type:     models.MonthlyPayslip,
		Channel:  models.ChannelEmail,
		Template: models.Template{Subject: "Subject", Content: "Body"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
