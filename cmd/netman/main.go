package main

import "github.com/AravindhGoutham/NetMan/cmd/netman/cmd"

func main() {
	cmd.Execute()
}
