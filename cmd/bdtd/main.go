package main

import (
	"context"

	"github.com/bdtd-go/bdtd-client/cmd/bdtd/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
