// Package common holds the service name, version, and logger setup shared by
// all binaries.
package common

// PackageName identifies the service in metrics and logs.
const PackageName = "stac-access-backend"

// Version is set at build time via -ldflags.
var Version = "dev"
