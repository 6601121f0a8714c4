// Example program running a release through the valhalla library API.
//
// Run it from the root of a repository with a valhalla.yml, inside a
// GitHub Actions or GitLab CI job:
//
//	VALHALLA_TOKEN=xxx go run ./example/
package main

import (
	"context"
	"os"

	"github.com/MyCarrier-DevOps/go-valhalla/pkg/valhalla"
)

func main() {
	err := valhalla.Release(context.Background(), valhalla.Options{
		Token:      os.Getenv("VALHALLA_TOKEN"),
		ReleaseCmd: os.Getenv("VALHALLA_RELEASE_CMD"),
		LogLevel:   "debug",
	})
	os.Exit(valhalla.ExitCode(err))
}
