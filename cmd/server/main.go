package main

import "github.com/Skotchmaster/dulcehogar/cmd/server/commands"

func main() {
	commands.Execute()
}
