package main

import "github.com/theirongolddev/cdash/cmd"

func main() {
	cmd.Execute()
}
