package main

import (
	"github.com/dogeorg/wifiinfo/cmd/wifiinfo/cmd"
)

func main() {
	cmd.Execute()
}
