package main

import "github.com/agrilink/agrilink/cmd/agrilink/commands"

func main() {
	commands.Execute()
}
