// Command poker-calendar serves and exports the upcoming poker tournament
// schedule with buy-ins converted to USD.
package main

import "github.com/pfrederiksen/poker-calendar/internal/cli"

func main() {
	cli.Execute()
}
