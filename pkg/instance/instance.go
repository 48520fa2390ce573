package instance

import (
	"os"
	"strings"
)

// GetID identifies this terminal process in logs. KASIR_INSTANCE_ID wins,
// then the platform dyno name, then the hostname.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("KASIR_INSTANCE_ID")); id != "" {
		return id
	}
	if id := strings.TrimSpace(os.Getenv("DYNO")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "kasir-0"
}
