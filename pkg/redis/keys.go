package redis

import "strings"

// Every key lives under cz: so one redis can be shared with other services.
const (
	keyNamespace      = "cz"
	idempotencyPrefix = "idempotency"
	cartPrefix        = "cart"
	lockPrefix        = "lock"
)

// IdempotencyKey holds a replayable response, e.g. cz:idempotency:<scope>:<key>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey(idempotencyPrefix, scope, id)
}

// CartKey holds a staff member's in-progress selection.
func (c *Client) CartKey(staffID string) string {
	return joinKey(cartPrefix, staffID)
}

// LockKey guards a named singleton such as the cron loop.
func (c *Client) LockKey(name string) string {
	return joinKey(lockPrefix, name)
}

func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
