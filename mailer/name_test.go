package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecipientName(t *testing.T) {
	assert.Equal(t, "Jane Doe", RecipientName("jane.doe@example.com"))
	assert.Equal(t, "Jane", RecipientName("jane@example.com"))
	assert.Equal(t, "J", RecipientName("j@example.com"))
	assert.Equal(t, "Jane Q Doe", RecipientName("jane.q.doe@example.com"))

	// not an email, returned as is
	assert.Equal(t, "not-an-email", RecipientName("not-an-email"))
	assert.Equal(t, "@example.com", RecipientName("@example.com"))
}
