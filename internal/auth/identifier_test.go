package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIdentifier(t *testing.T) {
	cases := []struct {
		id   string
		want error
	}{
		{"a@b.com", nil},
		{"user.name+tag@example.co.uk", nil},
		{"+996555123456", nil},
		{"996555123456", nil},
		{"", ErrMissingField},
		{"not-an-id", ErrInvalidIdentifier},
		{"@missing-local.com", ErrInvalidIdentifier},
		{"+0123456", ErrInvalidIdentifier},
		{"123-456-789", ErrInvalidIdentifier},
		{"+1234567890123456", ErrInvalidIdentifier},
	}

	for _, tc := range cases {
		err := ValidateIdentifier(tc.id)
		if tc.want == nil {
			assert.NoError(t, err, "id %q", tc.id)
		} else {
			assert.ErrorIs(t, err, tc.want, "id %q", tc.id)
		}
	}
}
