package main

import "key-manager/cmd"

func main() {
	cmd.Execute()
}
