package instance

import (
	"os"
	"strings"
)

// ID identifies the running process in logs. It prefers an explicit
// USERSVC_INSTANCE_ID, then the container hostname.
func ID() string {
	for _, key := range []string{"USERSVC_INSTANCE_ID", "HOSTNAME"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
