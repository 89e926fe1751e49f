package main

import "github.com/aaron-n/smallsh/cmd"

func main() {
	cmd.Execute()
}
