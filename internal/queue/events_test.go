package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityEvent_StreamRoundTrip(t *testing.T) {
	event := NewCheckedInEvent("req-1", "t@x.com", "app1", 2, "2024-01-02")

	values, err := event.ToMap()
	require.NoError(t, err)
	assert.Equal(t, EventCheckedIn, values["type"])

	parsed, err := ParseActivityEvent(values)
	require.NoError(t, err)
	assert.Equal(t, event, parsed)
}

func TestParseActivityEvent_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{name: "missing data", values: map[string]interface{}{"type": EventCheckedIn}},
		{name: "data not a string", values: map[string]interface{}{"data": 42}},
		{name: "data not json", values: map[string]interface{}{"data": "{oops"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseActivityEvent(tt.values)
			assert.Error(t, err)
		})
	}
}
