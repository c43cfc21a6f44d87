// Command comicbridge migrates comic series and files from Mylar3 into Kapowarr.
package main

import (
	"os"

	"github.com/comicbridge/comicbridge/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
