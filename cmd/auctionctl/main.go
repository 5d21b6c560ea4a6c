package main

import (
	"github.com/mcoot/auctionroom-go/internal/cli"
)

func main() {
	cli.Execute()
}
