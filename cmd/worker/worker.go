// Package main is the entry point of the mail worker.
// It consumes queued activation email jobs and delivers them.
package main

import (
	"storefront-auth/internal"
)

func main() {
	internal.InitWorker()
}
