package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{" +971 50-123-4567 ", "971501234567"},
		{"971501234567", "971501234567"},
		{"+44\t20 7946-0000", "442079460000"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizePhone(tt.input))
	}
}

func TestClientDisplayName(t *testing.T) {
	assert.Equal(t, "No Name", (&Client{}).DisplayName())
	assert.Equal(t, "Aisha", (&Client{Name: "Aisha"}).DisplayName())
}
