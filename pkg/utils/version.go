// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import "fmt"

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies the CLI to the novelist server.
func UserAgent() string {
	return fmt.Sprintf("novelist/%s (%s)", Version, Sha)
}
