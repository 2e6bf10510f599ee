package main

import "payment-reconciliation/internal/cli"

func main() {
	cli.Execute()
}
