package validation

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price" validate:"gt=0"`
	Cost  *int64          `json:"cost,omitempty" validate:"omitempty,gt=0"`
	Stock *int64          `json:"stock" validate:"required,gte=0"`
}

func TestValidate(t *testing.T) {
	v := New()
	stock := int64(0)
	negative := int64(-1)

	testCases := []struct {
		name           string
		input          sample
		expectedFields map[string]string
	}{
		{
			name:  "valid",
			input: sample{Name: "Rice", Price: decimal.NewFromFloat(1.5), Stock: &stock},
		},
		{
			name:  "all wrong",
			input: sample{Price: decimal.NewFromInt(-2), Cost: &negative, Stock: &negative},
			expectedFields: map[string]string{
				"name":  "name is required",
				"price": "price must be greater than 0",
				"cost":  "cost must be greater than 0",
				"stock": "stock must be at least 0",
			},
		},
		{
			name:           "missing stock",
			input:          sample{Name: "Rice", Price: decimal.NewFromInt(1)},
			expectedFields: map[string]string{"stock": "stock is required"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.input)

			if tc.expectedFields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.expectedFields, FormatErrors(err))
		})
	}
}

func TestFormatErrorsSizeBounds(t *testing.T) {
	type sized struct {
		Name  string   `json:"name" validate:"min=2"`
		Code  string   `json:"code" validate:"max=3"`
		Tags  []string `json:"tags" validate:"min=2"`
		Count int      `json:"count" validate:"max=10"`
	}
	err := New().Struct(sized{Name: "a", Code: "ABCD", Tags: []string{"a"}, Count: 11})

	require.Error(t, err)
	assert.Equal(t, map[string]string{
		"name":  "name must be at least 2 characters long",
		"code":  "code must be at most 3 characters long",
		"tags":  "tags must have at least 2 items",
		"count": "count must be at most 10",
	}, FormatErrors(err))
}

func TestFormatErrorsOtherError(t *testing.T) {
	assert.Equal(t, map[string]string{"body": "bad"}, FormatErrors(errors.New("bad")))
}

func TestPagination(t *testing.T) {
	testCases := []struct {
		name             string
		query            url.Values
		expectedPage     int
		expectedPageSize int
		expectedFields   []string
	}{
		{name: "defaults", query: url.Values{}, expectedPage: 1},
		{name: "explicit", query: url.Values{"page": {"3"}, "page_size": {"20"}}, expectedPage: 3, expectedPageSize: 20},
		{name: "bad page", query: url.Values{"page": {"zero"}}, expectedFields: []string{"page"}},
		{name: "page size too large", query: url.Values{"page_size": {"1000"}}, expectedFields: []string{"page_size"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			page, size, fields := Pagination(tc.query)

			if tc.expectedFields != nil {
				for _, f := range tc.expectedFields {
					assert.Contains(t, fields, f)
				}
				return
			}
			assert.Nil(t, fields)
			assert.Equal(t, tc.expectedPage, page)
			assert.Equal(t, tc.expectedPageSize, size)
		})
	}
}

func TestBind(t *testing.T) {
	v := New()

	var ok sample
	fields := Bind(v, httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Rice","price":"2.50","stock":3}`)), &ok)
	assert.Nil(t, fields)
	assert.Equal(t, "Rice", ok.Name)
	assert.True(t, decimal.RequireFromString("2.5").Equal(ok.Price))

	var bad sample
	fields = Bind(v, httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`)), &bad)
	assert.Contains(t, fields, "body")
}
