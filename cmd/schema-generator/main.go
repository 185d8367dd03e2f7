// Binary schema-generator writes a merged JSON schema of the db-backend
// DAP extension types to the given path (spec §6: "arg: <output-path>").
package main

import (
	"fmt"
	"os"

	"github.com/codetracer/db-backend/internal/schemadoc"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: schema-generator <output-path>")
		os.Exit(1)
	}

	data, err := schemadoc.Generate()
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate schema:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(os.Args[1], data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "write schema:", err)
		os.Exit(1)
	}
}
