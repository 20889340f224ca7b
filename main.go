package main

import "github.com/mikesmitty/thermocycle/cmd"

func main() {
	cmd.Execute()
}
