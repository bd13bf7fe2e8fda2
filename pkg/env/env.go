package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// ListenAddr resolves the HTTP listen address. Platforms that inject PORT win
// over the configured port.
func ListenAddr(configured string) string {
	port := Get("PORT", configured)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
