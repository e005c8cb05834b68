package main

import "github.com/awnumar/memguard"

func main() {
	// Wipe sealed secrets on SIGINT/SIGTERM and on normal exit
	memguard.CatchInterrupt()
	defer memguard.Purge()

	Execute()
}
