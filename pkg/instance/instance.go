package instance

import (
	"os"

	"github.com/angelmondragon/campground-backend/pkg/env"
)

// GetID identifies the running process in logs. An explicit
// CAMPGROUND_INSTANCE_ID wins, then the platform dyno name, then the host.
func GetID(service string) string {
	if id := env.Get("CAMPGROUND_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return service + "@" + host
	}
	return service + "-0"
}
