package domain

import "time"

// Address is a postal address as reported by the provider
type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1,omitempty"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// CustomerAddress holds both sub-addresses of a customer
type CustomerAddress struct {
	Billing  Address `json:"billing"`
	Shipping Address `json:"shipping"`
}

// Customer is an end shopper of a tenant, matched by (Email, OwnerID)
type Customer struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Address     CustomerAddress `json:"address"`
	Source      Provider        `json:"source"`
	TotalOrders int             `json:"total_orders"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CustomerFields are the contact fields refreshed on every reconciliation
type CustomerFields struct {
	Name    string          `json:"name"`
	Email   string          `json:"email" validate:"required"`
	Phone   string          `json:"phone"`
	Address CustomerAddress `json:"address"`
}
