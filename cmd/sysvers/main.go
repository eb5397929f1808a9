package main

import "github.com/sshcollectorpro/sysvers/internal/cli"

func main() {
	cli.Main()
}
