// Entrypoint delegating to the cobra root command in cmd/root.go.
package main

import "github.com/obscuranet/maybenot/cmd"

func main() {
	cmd.Execute()
}
