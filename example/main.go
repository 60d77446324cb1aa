// Command example runs the example application.
//
// Run it from the example directory so the config files are found:
//
//	cd example && go run . --migrate --seed
package main

import (
	"os"

	"github.com/dmitrymomot/rapid"
	"github.com/dmitrymomot/rapid/example/app"
)

func main() {
	root := os.Getenv("APP_ROOT")
	if root == "" {
		root = "."
	}

	rapid.Execute("example", func() *rapid.App {
		return app.New(root)
	})
}
