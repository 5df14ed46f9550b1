package main

import "github.com/ftl/wsqso/cmd"

func main() {
	cmd.Execute()
}
