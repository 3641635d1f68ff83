// Command pvzloader layers mod assets over a Plants vs. Zombies
// archive and injects mod libraries into the running game.
package main

import (
	"os"

	"github.com/lawnforge/pvzloader/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
