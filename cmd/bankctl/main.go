package main

import "github.com/ledgerbank/backend/cmd/bankctl/commands"

func main() {
	commands.Execute()
}
