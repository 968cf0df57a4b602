package main

import "github.com/rotblauer/elevd/cmd"

func main() {
	cmd.Execute()
}
