package main

import "github.com/samsaffron/tavily-agent/cmd"

func main() {
	cmd.Execute()
}
