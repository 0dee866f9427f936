package notify

import (
	"testing"
	"time"

	"crowdfund-client-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationExpiresAfterTTL(t *testing.T) {
	c := NewCenter(30 * time.Millisecond)
	defer c.Close()

	n := c.Success("Donation Sent! You got Common NFT!", "Dg1")
	require.Len(t, c.Active(), 1)
	assert.Equal(t, "Dg1", c.Active()[0].Digest)
	assert.Equal(t, models.SeveritySuccess, n.Severity)

	assert.Eventually(t, func() bool { return len(c.Active()) == 0 },
		time.Second, 5*time.Millisecond)
}

func TestDismissRemovesImmediately(t *testing.T) {
	c := NewCenter(50 * time.Millisecond)
	defer c.Close()

	n := c.Error("Donation Failed.")
	require.True(t, c.Dismiss(n.Id))
	assert.Empty(t, c.Active())

	// Must not reappear once its original timer would have fired.
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, c.Active())
	assert.False(t, c.Dismiss(n.Id))
}

func TestErrorNotificationHasNoDigest(t *testing.T) {
	c := NewCenter(time.Minute)
	defer c.Close()

	n := c.Error("Withdraw Failed.")
	assert.Equal(t, models.SeverityError, n.Severity)
	assert.Empty(t, n.Digest)
}

func TestActiveIsOrderedAndSubscribersNotified(t *testing.T) {
	c := NewCenter(time.Minute)
	defer c.Close()

	var seen []string
	c.Subscribe(func(n models.Notification) { seen = append(seen, n.Message) })

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	c.Success("first", "")
	c.Success("second", "")

	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "first", active[0].Message)
	assert.Equal(t, "second", active[1].Message)
	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestDefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewCenter(0).ttl)
	assert.Equal(t, 8*time.Second, DefaultTTL)
}
