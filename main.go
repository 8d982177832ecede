package main

import "github.com/pantheonlabs/hermes/cmd"

func main() {
	cmd.Execute()
}
