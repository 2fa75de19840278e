package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentArgs struct {
	BookingID int     `json:"booking_id" description:"Booking id"`
	Method    string  `json:"payment_method" enum:"bank_transfer, credit_card"`
	PaidOn    string  `json:"paid_on,omitempty" format:"date"`
	Note      *string `json:"note"`
	Internal  string  `json:"-"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(&paymentArgs{})

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 4)

	assert.Equal(t, map[string]any{"type": "integer", "description": "Booking id"}, props["booking_id"])
	assert.Equal(t, []string{"bank_transfer", "credit_card"}, props["payment_method"].(map[string]any)["enum"])
	assert.Equal(t, "date", props["paid_on"].(map[string]any)["format"])
	assert.Equal(t, []string{"booking_id", "payment_method"}, RequiredFields(schema))
}

func TestCreateSchema_NonStruct(t *testing.T) {
	schema := CreateSchema("not a struct")
	assert.Empty(t, schema["properties"])
	assert.NotContains(t, schema, "required")
}

func TestValidateParameters(t *testing.T) {
	goSchema := CreateSchema(paymentArgs{})

	tests := []struct {
		name    string
		schema  map[string]any
		params  map[string]any
		wantErr string
	}{
		{
			name:   "ok",
			schema: goSchema,
			params: map[string]any{"booking_id": 7.0, "payment_method": "credit_card", "paid_on": "2026-01-31"},
		},
		{
			name:    "missing required",
			schema:  goSchema,
			params:  map[string]any{"payment_method": "credit_card"},
			wantErr: "booking_id",
		},
		{
			name:    "blank required",
			schema:  goSchema,
			params:  map[string]any{"booking_id": 7.0, "payment_method": "  "},
			wantErr: "required field is empty",
		},
		{
			name:    "wrong type",
			schema:  goSchema,
			params:  map[string]any{"booking_id": "seven", "payment_method": "credit_card"},
			wantErr: "expected type integer",
		},
		{
			name:    "fractional integer",
			schema:  goSchema,
			params:  map[string]any{"booking_id": 7.5, "payment_method": "credit_card"},
			wantErr: "expected type integer",
		},
		{
			name:    "enum mismatch",
			schema:  goSchema,
			params:  map[string]any{"booking_id": 7.0, "payment_method": "cash"},
			wantErr: "must be one of bank_transfer, credit_card",
		},
		{
			name:    "bad date",
			schema:  goSchema,
			params:  map[string]any{"booking_id": 7.0, "payment_method": "credit_card", "paid_on": "tomorrow"},
			wantErr: "YYYY-MM-DD",
		},
		{
			name: "decoded schema",
			schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"kind": map[string]any{"type": "string", "enum": []any{"hotel", "flight"}},
				},
				"required": []any{"kind"},
			},
			params:  map[string]any{"kind": "car"},
			wantErr: "must be one of hotel, flight",
		},
		{
			name:   "unknown fields ignored",
			schema: goSchema,
			params: map[string]any{"booking_id": 1.0, "payment_method": "bank_transfer", "extra": []any{1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParameters(tt.params, tt.schema)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Error(), tt.wantErr)
		})
	}
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("You are the {{ .domain | title }}.", map[string]any{"domain": "customer_service agent"})
	require.NoError(t, err)
	assert.Equal(t, "You are the Customer Service Agent.", out)

	out, err = RenderTemplate("Hello {{ default \"guest\" .name }}", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Hello guest", out)

	out, err = RenderTemplate("no markers & <html>", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers & <html>", out)

	_, err = RenderTemplate("{{ .broken", nil)
	assert.Error(t, err)
}

func TestRenderTemplate_Concurrent(t *testing.T) {
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			out, err := RenderTemplate("Date: {{ .date }}", map[string]any{"date": "2026-05-01"})
			assert.NoError(t, err)
			assert.Equal(t, "Date: 2026-05-01", out)
		}()
	}

	wg.Wait()
}
