package main

import "github.com/intothedarkness/ScrCpyHelper/cmd"

func main() {
	cmd.Execute()
}
