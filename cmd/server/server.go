// Package main is the entry point of the API server.
// It sets up and starts the server by calling initialization functions from the internal package.
package main

import (
	"storefront-auth/internal"
)

func main() {
	internal.Init()
}
