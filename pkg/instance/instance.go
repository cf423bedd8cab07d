package instance

import (
	"os"
	"strings"
)

// GetID names this process among worker replicas. COSTUMERZ_WORKER_ID wins,
// then the hostname, then a fixed fallback.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("COSTUMERZ_WORKER_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
