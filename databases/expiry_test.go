package databases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextExpiry(t *testing.T) {
	now := int64(1_700_000_000)

	// expired or brand new: the period counts from now
	assert.Equal(t, now+30*86400, nextExpiry(now, 0, 30))
	assert.Equal(t, now+30*86400, nextExpiry(now, now-86400, 30))

	// unexpired: the period stacks on the remainder
	future := now + 10*86400
	assert.Equal(t, future+30*86400, nextExpiry(now, future, 30))
}

func TestNextExpiryMonotonic(t *testing.T) {
	now := int64(1_700_000_000)
	for _, current := range []int64{0, now - 100*86400, now, now + 1, now + 365*86400} {
		assert.GreaterOrEqual(t, nextExpiry(now, current, 1), current)
		assert.Greater(t, nextExpiry(now, current, 1), now)
	}
}

func TestWarningWindow(t *testing.T) {
	now := time.Now()
	hardExpiry := 40 * 24 * time.Hour
	warningLead := 30 * 24 * time.Hour

	lower, upper := WarningWindow(now, hardExpiry, warningLead)

	assert.Equal(t, now.Add(-hardExpiry).Unix(), lower)
	assert.Equal(t, now.Add(-10*24*time.Hour).Unix(), upper)

	// a member 10 days past their last payment sits exactly on the
	// inclusive upper bound, a member 5 days past is still outside
	tenDaysAgo := now.Add(-10 * 24 * time.Hour).Unix()
	fiveDaysAgo := now.Add(-5 * 24 * time.Hour).Unix()
	assert.True(t, tenDaysAgo > lower && tenDaysAgo <= upper)
	assert.False(t, fiveDaysAgo > lower && fiveDaysAgo <= upper)

	// a member already past the hard expiry falls below the window,
	// that one belongs to the expiry check instead
	fortyOneDaysAgo := now.Add(-41 * 24 * time.Hour).Unix()
	assert.False(t, fortyOneDaysAgo > lower && fortyOneDaysAgo <= upper)
}
