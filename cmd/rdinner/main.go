package main

import "github.com/rdinner/engine/cmd"

func main() {
	cmd.Execute()
}
