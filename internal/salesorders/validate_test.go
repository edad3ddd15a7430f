package salesorders

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInput(t *testing.T) {
	valid := CreateInput{
		ClientID: 1,
		Lines:    []LineInput{{ItemID: 1, Quantity: 1, TaxRate: d("15.00")}},
	}
	require.NoError(t, validateInput(valid, valid.Lines))

	tests := []struct {
		name  string
		mut   func(in *CreateInput)
		field string
		want  string
	}{
		{"missing client", func(in *CreateInput) { in.ClientID = 0 }, "clientId", "must_be_positive"},
		{"zero quantity", func(in *CreateInput) { in.Lines[0].Quantity = 0 }, "orderDetails[0].quantity", "must_be_positive"},
		{"negative quantity", func(in *CreateInput) { in.Lines[0].Quantity = -3 }, "orderDetails[0].quantity", "must_be_positive"},
		{"quantity above int4", func(in *CreateInput) { in.Lines[0].Quantity = 2147483648 }, "orderDetails[0].quantity", "too_large"},
		{"missing item", func(in *CreateInput) { in.Lines[0].ItemID = 0 }, "orderDetails[0].itemId", "must_be_positive"},
		{"negative rate", func(in *CreateInput) { in.Lines[0].TaxRate = d("-1") }, "orderDetails[0].taxRate", "out_of_range"},
		{"rate above 100", func(in *CreateInput) { in.Lines[0].TaxRate = d("100.01") }, "orderDetails[0].taxRate", "out_of_range"},
		{"rate precision", func(in *CreateInput) { in.Lines[0].TaxRate = d("15.001") }, "orderDetails[0].taxRate", "too_many_decimals"},
		{"long note", func(in *CreateInput) { in.Lines[0].Note = strings.Repeat("n", 501) }, "orderDetails[0].note", "too_long"},
		{"long postal code", func(in *CreateInput) { in.DeliveryPostalCode = strings.Repeat("9", 21) }, "deliveryPostalCode", "too_long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			in.Lines = append([]LineInput(nil), valid.Lines...)
			tt.mut(&in)
			err := validateInput(in, in.Lines)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.want, ve.Violations[tt.field], "violations: %v", ve.Violations)
		})
	}
}

func TestValidateInputAcceptsLargestQuantity(t *testing.T) {
	in := CreateInput{ClientID: 1, Lines: []LineInput{{ItemID: 1, Quantity: 2147483647, TaxRate: d("0")}}}
	assert.NoError(t, validateInput(in, in.Lines))
}

func TestTranslatePostgresErrors(t *testing.T) {
	var ve *ValidationError

	err := translate(fmt.Errorf("insert line: %w", &pgconn.PgError{Code: "22003", Message: "integer out of range"}))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "out_of_range", ve.Violations["orderDetails"])

	err = translate(&pgconn.PgError{Code: "23503", ConstraintName: "sales_order_lines_item_id_fkey"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "item_does_not_exist", ve.Violations["orderDetails"])

	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "23505", ConstraintName: "sales_orders_order_number_key"}), ErrConflict)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestValidationErrorMessageIsStable(t *testing.T) {
	err := &ValidationError{Violations: Violations{"b": "too_long", "a": "required"}}
	assert.Equal(t, "validation failed: a: required, b: too_long", err.Error())
}
