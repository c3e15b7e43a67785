package main

import "optipix/cmd"

func main() {
	cmd.Execute()
}
