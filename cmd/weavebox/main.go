// Package main provides the weavebox CLI: encrypted browser-data ingestion,
// page-text fetching and full-text search over the local mirror.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
