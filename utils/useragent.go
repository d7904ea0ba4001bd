package utils

import (
	"strings"

	ua "github.com/mileusna/useragent"
)

// ParseUserAgent extracts a short device description from a User-Agent
// string, used to label device sessions.
func ParseUserAgent(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	parsedUA := ua.Parse(userAgent)

	name := parsedUA.Name
	if name == "" {
		name = "Unknown Client"
	}
	osName := parsedUA.OS
	if osName == "" {
		osName = "Unknown OS"
	}

	device := "Desktop"
	if parsedUA.Mobile {
		device = "Mobile"
	} else if parsedUA.Tablet {
		device = "Tablet"
	}

	return strings.TrimSpace(name + " on " + osName + " (" + device + ")")
}
