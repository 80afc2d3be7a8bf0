package main

import (
	"audiofx/cmd"
)

func main() {
	cmd.Execute()
}
