package main

import "github.com/johnrirwin/newsdesk/internal/cli"

func main() {
	cli.Execute()
}
