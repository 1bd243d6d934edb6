// Command chainui hosts the blockchain node UI: the production build with
// `serve`, or a live bundle plus API proxy with `dev`.
package main

import (
	"os"

	"github.com/go-while/go-chainui/internal/config"
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
