package main

import "github.com/example/restovibe/cmd"

func main() {
	cmd.Execute()
}
