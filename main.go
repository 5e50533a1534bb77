package main

import "github.com/bcaldwell/ledgerline/cmd"

func main() {
	cmd.Execute()
}
