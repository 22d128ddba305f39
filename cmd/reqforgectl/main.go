// reqforgectl is the administrative companion CLI: it opens the same
// database the server runs on and drives the same service packages, so an
// operator can inspect and repair state without the HTTP surface.
package main

import (
	"fmt"
	"os"

	"github.com/veyronhq/reqforge/cmd/reqforgectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
