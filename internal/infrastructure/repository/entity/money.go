package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DecimalToBSON stores money as Decimal128 so no precision is lost in the database
func DecimalToBSON(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to encode amount %s: %w", d.String(), err)
	}
	return v, nil
}

// DecimalFromBSON is the inverse of DecimalToBSON; unset values decode to zero
func DecimalFromBSON(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
