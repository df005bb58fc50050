package main

import "github.com/cnlance/rulesd/cmd"

func main() {
	cmd.Execute()
}
