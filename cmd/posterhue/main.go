// posterhue - theme colours from movie artwork
//
// posterhue extracts dominant colours from movie and TV artwork and picks
// the ones that stay legible against a UI background.
package main

import (
	"github.com/jmylchreest/posterhue/internal/cli"
)

func main() {
	cli.Execute()
}
