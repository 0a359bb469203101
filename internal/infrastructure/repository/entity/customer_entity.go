package entity

import (
	"time"

	"archie-core-order-ingest/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoAddressDoc represents one postal address
type MongoAddressDoc struct {
	FirstName string `bson:"firstName,omitempty"`
	LastName  string `bson:"lastName,omitempty"`
	Company   string `bson:"company,omitempty"`
	Address1  string `bson:"address1,omitempty"`
	Address2  string `bson:"address2,omitempty"`
	City      string `bson:"city,omitempty"`
	State     string `bson:"state,omitempty"`
	Postcode  string `bson:"postcode,omitempty"`
	Country   string `bson:"country,omitempty"`
	Phone     string `bson:"phone,omitempty"`
	Email     string `bson:"email,omitempty"`
}

// MongoCustomerAddressDoc holds the billing and shipping addresses
type MongoCustomerAddressDoc struct {
	Billing  MongoAddressDoc `bson:"billing"`
	Shipping MongoAddressDoc `bson:"shipping"`
}

// MongoCustomerDoc represents a customer in MongoDB
type MongoCustomerDoc struct {
	ID          primitive.ObjectID      `bson:"_id,omitempty"`
	OwnerID     string                  `bson:"ownerId"`
	Name        string                  `bson:"name"`
	Email       string                  `bson:"email"`
	Phone       string                  `bson:"phone"`
	Address     MongoCustomerAddressDoc `bson:"address"`
	Source      string                  `bson:"source"`
	TotalOrders int                     `bson:"totalOrders"`
	CreatedAt   time.Time               `bson:"createdAt"`
	UpdatedAt   time.Time               `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoCustomerDoc) ToDomain() *domain.Customer {
	return &domain.Customer{
		ID:          d.ID.Hex(),
		OwnerID:     d.OwnerID,
		Name:        d.Name,
		Email:       d.Email,
		Phone:       d.Phone,
		Address:     d.Address.ToDomain(),
		Source:      domain.Provider(d.Source),
		TotalOrders: d.TotalOrders,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoCustomerDocFromDomain converts a domain entity to a MongoDB document
func MongoCustomerDocFromDomain(customer *domain.Customer) *MongoCustomerDoc {
	return &MongoCustomerDoc{
		ID:          objectIDFromHex(customer.ID),
		OwnerID:     customer.OwnerID,
		Name:        customer.Name,
		Email:       customer.Email,
		Phone:       customer.Phone,
		Address:     MongoCustomerAddressDocFromDomain(customer.Address),
		Source:      customer.Source.String(),
		TotalOrders: customer.TotalOrders,
		CreatedAt:   customer.CreatedAt,
		UpdatedAt:   customer.UpdatedAt,
	}
}

func (d MongoCustomerAddressDoc) ToDomain() domain.CustomerAddress {
	return domain.CustomerAddress{
		Billing:  d.Billing.toDomain(),
		Shipping: d.Shipping.toDomain(),
	}
}

// MongoCustomerAddressDocFromDomain converts both sub-addresses
func MongoCustomerAddressDocFromDomain(a domain.CustomerAddress) MongoCustomerAddressDoc {
	return MongoCustomerAddressDoc{
		Billing:  addressDoc(a.Billing),
		Shipping: addressDoc(a.Shipping),
	}
}

func (d MongoAddressDoc) toDomain() domain.Address {
	return domain.Address{
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Company:   d.Company,
		Address1:  d.Address1,
		Address2:  d.Address2,
		City:      d.City,
		State:     d.State,
		Postcode:  d.Postcode,
		Country:   d.Country,
		Phone:     d.Phone,
		Email:     d.Email,
	}
}

func addressDoc(a domain.Address) MongoAddressDoc {
	return MongoAddressDoc{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Country:   a.Country,
		Phone:     a.Phone,
		Email:     a.Email,
	}
}
