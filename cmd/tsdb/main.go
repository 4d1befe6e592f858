// Command tsdb is the CLI entrypoint for the directory-backed time-series
// storage engine: append/insert/query/sort one-shot operations plus a
// serve daemon that runs a scheduled maintenance sort behind a
// health/metrics HTTP endpoint.
package main

import (
	"context"
	"log"
	"os"

	"github.com/taransay/tsdb/cmd"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := cmd.New().Run(context.Background(), os.Args); err != nil {
		log.Printf("error running tsdb: %s", err)

		return 1
	}

	return 0
}
