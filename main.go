package main

import (
	"os"

	"github.com/josephlewis42/minsh/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
