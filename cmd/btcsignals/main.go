package main

import "btc-signal-alerts/internal/cli"

func main() {
	cli.Execute()
}
