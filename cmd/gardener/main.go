// Command gardener edits and validates cell-tracking lineage databases.
package main

import "github.com/mesh-intelligence/gardener/internal/cli"

func main() {
	cli.Execute()
}
