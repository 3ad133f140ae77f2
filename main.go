package main

import "github.com/vedsharma/companionctl/cmd"

func main() {
	cmd.Execute()
}
