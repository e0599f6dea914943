// Command dynrepo generates entity code from schema files and runs a
// small demo of the repository engine against a database.
//
//	dynrepo gen --schema sports.yaml --target ./sports [--watch]
//	dynrepo demo --driver sqlite --dsn "file:chat.db" --create
//
// Settings are read from flags, DYNREPO_* environment variables and a
// dynrepo.yaml file, in that order of precedence.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
