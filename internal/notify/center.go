// Package notify keeps the short-lived success and error messages produced
// when a ledger call resolves.
package notify

import (
	"sort"
	"sync"
	"time"

	"crowdfund-client-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTTL is how long a notification stays visible
const DefaultTTL = 8 * time.Second

type entry struct {
	notification models.Notification
	timer        *time.Timer
}

// Center holds the visible notifications. Each expires after the TTL unless
// dismissed earlier; a dismissed or expired notification never comes back.
type Center struct {
	ttl         time.Duration
	mutex       sync.Mutex
	entries     map[string]*entry
	subscribers []func(models.Notification)
	now         func() time.Time
}

// NewCenter creates a notification center; ttl <= 0 selects DefaultTTL
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		ttl:     ttl,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Subscribe registers fn to be called with every pushed notification
func (c *Center) Subscribe(fn func(models.Notification)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Success pushes a success notification, optionally linking a transaction
func (c *Center) Success(message, digest string) models.Notification {
	return c.push(models.SeveritySuccess, message, digest)
}

// Error pushes an error notification. Error notifications carry no digest.
func (c *Center) Error(message string) models.Notification {
	return c.push(models.SeverityError, message, "")
}

func (c *Center) push(severity models.Severity, message, digest string) models.Notification {
	n := models.Notification{
		Id:        uuid.New().String(),
		Severity:  severity,
		Message:   message,
		Digest:    digest,
		CreatedAt: c.now(),
	}

	c.mutex.Lock()
	e := &entry{notification: n}
	e.timer = time.AfterFunc(c.ttl, func() { c.expire(n.Id) })
	c.entries[n.Id] = e
	subscribers := append([]func(models.Notification){}, c.subscribers...)
	c.mutex.Unlock()

	zap.L().Info("Notification raised",
		zap.String("id", n.Id),
		zap.String("severity", string(severity)),
		zap.String("message", message),
		zap.String("digest", digest))

	for _, fn := range subscribers {
		fn(n)
	}
	return n
}

func (c *Center) expire(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.entries[id]; ok {
		delete(c.entries, id)
		zap.L().Debug("Notification expired", zap.String("id", id))
	}
}

// Dismiss removes a notification immediately. It reports whether the
// notification was still visible.
func (c *Center) Dismiss(id string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(c.entries, id)
	return true
}

// Active returns the visible notifications, oldest first
func (c *Center) Active() []models.Notification {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	out := make([]models.Notification, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.notification)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Close stops every pending expiry timer and clears the center
func (c *Center) Close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for id, e := range c.entries {
		e.timer.Stop()
		delete(c.entries, id)
	}
}
