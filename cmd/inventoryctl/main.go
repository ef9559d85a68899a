package main

import "github.com/foso7/wings-cafe-inventory/internal/cli"

func main() {
	cli.Execute()
}
