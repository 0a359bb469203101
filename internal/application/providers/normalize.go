package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"archie-core-order-ingest/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateOrder runs struct-level checks on a normalized order
func validateOrder(order *domain.NormalizedOrder) error {
	err := validate.Struct(order)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("invalid_payload", err.Error())
	}

	fe := fieldErrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "NormalizedOrder.")
	switch fe.Tag() {
	case "required":
		return domain.NewValidationError("missing_field", fmt.Sprintf("%s is required", field))
	case "gte":
		return domain.NewValidationError("invalid_quantity", fmt.Sprintf("%s must not be negative", field))
	case "lte":
		return domain.NewValidationError("invalid_quantity", fmt.Sprintf("%s is too large", field))
	default:
		return domain.NewValidationError("invalid_field", fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
}

// displayName joins given and family names
func displayName(given, family string) string {
	return strings.TrimSpace(strings.TrimSpace(given) + " " + strings.TrimSpace(family))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// parseTotal parses a provider money value. Missing or non-numeric totals are rejected.
func parseTotal(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, domain.NewValidationError("missing_field", "total is required")
	}

	var s string
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return decimal.Zero, domain.NewValidationError("invalid_total", "total must be numeric")
		}
	} else {
		s = string(trimmed)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, domain.NewValidationError("missing_field", "total is required")
	}

	total, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.NewValidationError("invalid_total", fmt.Sprintf("total %q is not numeric", s))
	}
	return total, nil
}

// externalID accepts a provider order id as JSON number or string
type externalID string

func (id *externalID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = externalID(strings.TrimSpace(s))
		return nil
	}

	canonical, err := canonicalNumber(string(trimmed))
	if err != nil {
		return err
	}
	*id = externalID(canonical)
	return nil
}

// canonicalNumber renders a JSON number without exponent or trailing zeros,
// so 1001, 1001.0 and 1.001e3 all become "1001"
func canonicalNumber(raw string) (string, error) {
	if _, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return raw, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("invalid order id %q", raw)
	}
	return d.String(), nil
}

var maxQuantity = decimal.NewFromInt(math.MaxInt32)

// quantity accepts a line item quantity as JSON number or numeric string.
// Fractional and out-of-range values fail with invalid_quantity rather than truncating.
type quantity int

func (q *quantity) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*q = 0
		return nil
	}
	s := string(trimmed)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid quantity %q", s)
	}
	if !d.IsInteger() || d.Abs().GreaterThan(maxQuantity) {
		return domain.NewValidationError("invalid_quantity", fmt.Sprintf("quantity %s is not a whole number in range", d.String()))
	}
	*q = quantity(d.IntPart())
	return nil
}

// decodeJSON unmarshals body and maps syntax/type errors to a validation error
func decodeJSON(body []byte, v interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.NewValidationError("empty_body", "request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		var ie *domain.IngestError
		if errors.As(err, &ie) {
			return ie
		}
		return domain.NewValidationError("malformed_json", fmt.Sprintf("payload could not be decoded: %v", err))
	}
	return nil
}
