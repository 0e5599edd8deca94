package main

import "github.com/ppiankov/walletgate/internal/cli"

func main() {
	cli.Execute()
}
