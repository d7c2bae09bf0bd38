package main

import "github.com/forPelevin/trendclip/internal/cli"

func main() {
	cli.Main()
}
