package main

import "github.com/atikulmunna/catloom/internal/cmd"

func main() {
	cmd.Execute()
}
