// ABOUTME: Version and product identification constants
// ABOUTME: Reported by the CLI, telemetry hello messages and mDNS TXT records
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the user-facing program name
	Product = "modplay"

	// Manufacturer identifies the authors
	Manufacturer = "Resonate Protocol"
)
