// Package main provides the universe curation CLI: bootstrap ingestion,
// one-shot cadence scans, and the long-running daemon.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
