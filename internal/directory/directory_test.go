package directory

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	commonerrors "notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Static
// ==========================

func TestFixture(t *testing.T) {
	dir := Fixture()
	ctx := context.Background()

	u, err := dir.GetUser(ctx, "user-4")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.FirstName)
	assert.Equal(t, []models.ChannelType{models.ChannelEmail, models.ChannelUI}, u.SubscribeChannels)
	assert.Equal(t, 8.0, u.LeaveBalance)

	c, err := dir.GetCompany(ctx, "company-b")
	require.NoError(t, err)
	assert.Equal(t, "Company B", c.Name)
	assert.Equal(t, []models.ChannelType{models.ChannelUI}, c.SubscribeChannels)

	assert.Len(t, FixtureUsers(), 5)
}

func TestStatic_NotFound(t *testing.T) {
	dir := Fixture()

	_, err := dir.GetUser(context.Background(), "user-99")
	assert.True(t, commonerrors.IsNotFound(err))

	_, err = dir.GetCompany(context.Background(), "company-z")
	assert.True(t, commonerrors.IsNotFound(err))
}

// ==========================
// Postgres
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPostgres_GetUser(t *testing.T) {
	db, mock := setupMockDB(t)
	dob := time.Date(1985, time.July, 22, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "phone", "company_id", "subscribe_channels", "date_of_birth", "salary", "leave_balance"}).
		AddRow("user-2", "Jane", "Smith", "jane.smith@companyA.com", nil, "company-a", "{ui}", dob, 6000.0, 12.0)
	mock.ExpectQuery(regexp.QuoteMeta(selectUserQuery)).WithArgs("user-2").WillReturnRows(rows)

	u, err := NewPostgres(db).GetUser(context.Background(), "user-2")
	require.NoError(t, err)

	assert.Equal(t, "Jane Smith", u.FullName())
	assert.Equal(t, "", u.Phone)
	assert.Equal(t, []models.ChannelType{models.ChannelUI}, u.SubscribeChannels)
	require.NotNil(t, u.DateOfBirth)
	assert.True(t, dob.Equal(*u.DateOfBirth))
	assert.Equal(t, 12.0, u.LeaveBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetUser_Errors(t *testing.T) {
	t.Run("no rows is not found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectUserQuery)).WithArgs("user-9").WillReturnError(sql.ErrNoRows)

		_, err := NewPostgres(db).GetUser(context.Background(), "user-9")
		assert.True(t, commonerrors.IsNotFound(err))
	})

	t.Run("driver failure is internal", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectUserQuery)).WithArgs("user-1").WillReturnError(errors.New("bad connection"))

		_, err := NewPostgres(db).GetUser(context.Background(), "user-1")
		assert.Equal(t, commonerrors.ErrCodeInternal, commonerrors.CodeOf(err))
	})
}

func TestPostgres_GetCompany(t *testing.T) {
	db, mock := setupMockDB(t)
	rows := sqlmock.NewRows([]string{"id", "name", "subscribe_channels"}).
		AddRow("company-a", "Company A", "{email,ui}")
	mock.ExpectQuery(regexp.QuoteMeta(selectCompanyQuery)).WithArgs("company-a").WillReturnRows(rows)

	c, err := NewPostgres(db).GetCompany(context.Background(), "company-a")
	require.NoError(t, err)
	assert.Equal(t, []models.ChannelType{models.ChannelEmail, models.ChannelUI}, c.SubscribeChannels)

	mock.ExpectQuery(regexp.QuoteMeta(selectCompanyQuery)).WithArgs("company-z").WillReturnError(sql.ErrNoRows)
	_, err = NewPostgres(db).GetCompany(context.Background(), "company-z")
	assert.True(t, commonerrors.IsNotFound(err))
}
