package instance

import (
	"os"
	"strings"
)

// ID names the running process in logs. Heroku sets DYNO; other platforms can
// set MERCADITO_INSTANCE_ID.
func ID() string {
	for _, key := range []string{"MERCADITO_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
