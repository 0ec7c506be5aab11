package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"international", "+14155552671", "[PHONE:****71]"},
		{"with spaces", "+1 415 555 2671", "[PHONE:****71]"},
		{"with dashes", "415-555-2671", "[PHONE:****71]"},
		{"embedded", "call me at +14155552671 ok?", "call me at [PHONE:****71] ok?"},
		{"short number kept", "room 4211", "room 4211"},
		{"plain name", "Alice", "Alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactPhone(tt.input))
		})
	}
}

func TestSenderField(t *testing.T) {
	field := Sender("+8801712345678")
	assert.Equal(t, "sender", field.Key)
	assert.Equal(t, "[PHONE:****78]", field.String)
}
