package main

import "github.com/probmarkets/kalshi-bot/cmd"

func main() {
	cmd.Execute()
}
