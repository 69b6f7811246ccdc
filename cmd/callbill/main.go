package main

import "github.com/ogulcanaydogan/callbill/internal/cli"

func main() {
	cli.Execute()
}
