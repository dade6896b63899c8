// Command hermesctl is the operator tool for a Hermes installation: schema
// migrations, the operation ledger and the stored cashier session.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "hermesctl:", err)
		os.Exit(1)
	}
}
