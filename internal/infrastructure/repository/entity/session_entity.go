package entity

import (
	"time"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
)

// MongoSessionDoc represents a merchant session in MongoDB. The document ID is
// the deterministic session ID, so upserts always overwrite the shop's
// existing offline session.
type MongoSessionDoc struct {
	ID          string    `bson:"_id"`
	Shop        string    `bson:"shop"`
	IsOnline    bool      `bson:"isOnline"`
	AccessToken string    `bson:"accessToken"`
	Scope       string    `bson:"scope"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoSessionDoc) ToDomain() *domain.Session {
	return &domain.Session{
		ID:          d.ID,
		Shop:        d.Shop,
		IsOnline:    d.IsOnline,
		AccessToken: d.AccessToken,
		Scope:       d.Scope,
	}
}

// MongoSessionDocFromDomain converts a domain entity to a MongoDB document
func MongoSessionDocFromDomain(session *domain.Session) *MongoSessionDoc {
	return &MongoSessionDoc{
		ID:          session.ID,
		Shop:        session.Shop,
		IsOnline:    session.IsOnline,
		AccessToken: session.AccessToken,
		Scope:       session.Scope,
	}
}
