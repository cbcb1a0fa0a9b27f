package directory

import (
	"context"
	stderrors "errors"
	"time"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type userDocument struct {
	ID                string     `bson:"_id"`
	FirstName         string     `bson:"firstName"`
	LastName          string     `bson:"lastName"`
	Email             string     `bson:"email"`
	Phone             string     `bson:"phone,omitempty"`
	CompanyID         string     `bson:"companyId"`
	SubscribeChannels []string   `bson:"subscribeChannels"`
	DateOfBirth       *time.Time `bson:"dateOfBirth,omitempty"`
	Salary            float64    `bson:"salary"`
	LeaveBalance      float64    `bson:"leaveBalance"`
}

type companyDocument struct {
	ID                string   `bson:"_id"`
	Name              string   `bson:"name"`
	SubscribeChannels []string `bson:"subscribeChannels"`
}

// Mongo reads users and companies from the users and companies collections.
type Mongo struct {
	users     *mongo.Collection
	companies *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		users:     db.Collection("users"),
		companies: db.Collection("companies"),
	}
}

func (m *Mongo) GetUser(ctx context.Context, userID string) (models.User, error) {
	var doc userDocument
	if err := m.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, errors.NewNotFoundError("User", userID)
		}
		return models.User{}, errors.NewInternalError("user lookup failed", err)
	}

	return models.User{
		ID:                doc.ID,
		FirstName:         doc.FirstName,
		LastName:          doc.LastName,
		Email:             doc.Email,
		Phone:             doc.Phone,
		CompanyID:         doc.CompanyID,
		SubscribeChannels: toChannels(doc.SubscribeChannels),
		DateOfBirth:       doc.DateOfBirth,
		Salary:            doc.Salary,
		LeaveBalance:      doc.LeaveBalance,
	}, nil
}

func (m *Mongo) GetCompany(ctx context.Context, companyID string) (models.Company, error) {
	var doc companyDocument
	if err := m.companies.FindOne(ctx, bson.M{"_id": companyID}).Decode(&doc); err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return models.Company{}, errors.NewNotFoundError("Company", companyID)
		}
		return models.Company{}, errors.NewInternalError("company lookup failed", err)
	}

	return models.Company{
		ID:                doc.ID,
		Name:              doc.Name,
		SubscribeChannels: toChannels(doc.SubscribeChannels),
	}, nil
}
