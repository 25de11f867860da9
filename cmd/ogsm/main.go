// Command ogsm is the administrative CLI for the OGSM planning data layer.
package main

import "github.com/mesh-intelligence/ogsm/internal/cli"

func main() {
	cli.Execute()
}
