package main

import "spawnchild/cmd"

func main() {
	cmd.Execute()
}
