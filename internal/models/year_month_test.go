package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearMonthBefore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		left  YearMonth
		right YearMonth
		want  bool
	}{
		{"earlier year", NewYearMonth(2024, time.December), NewYearMonth(2025, time.January), true},
		{"earlier month", NewYearMonth(2025, time.March), NewYearMonth(2025, time.April), true},
		{"same month", NewYearMonth(2025, time.April), NewYearMonth(2025, time.April), false},
		{"later month", NewYearMonth(2025, time.May), NewYearMonth(2025, time.April), false},
		{"later year", NewYearMonth(2026, time.January), NewYearMonth(2025, time.December), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.left.Before(tt.right))
		})
	}
}

func TestYearMonthJSON(t *testing.T) {
	t.Parallel()

	var request PaymentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"expirationDate":"2027-03"}`), &request))
	require.NotNil(t, request.ExpirationDate)
	assert.Equal(t, NewYearMonth(2027, time.March), *request.ExpirationDate)

	out, err := json.Marshal(request.ExpirationDate)
	require.NoError(t, err)
	assert.JSONEq(t, `"2027-03"`, string(out))

	var empty PaymentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"expirationDate":null}`), &empty))
	assert.Nil(t, empty.ExpirationDate)

	assert.Error(t, json.Unmarshal([]byte(`{"expirationDate":"03/27"}`), &request))
	assert.Error(t, json.Unmarshal([]byte(`{"expirationDate":202703}`), &request))
}
