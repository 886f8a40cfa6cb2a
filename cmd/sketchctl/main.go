package main

import "sitesketch/cmd/sketchctl/cmd"

func main() {
	cmd.Execute()
}
