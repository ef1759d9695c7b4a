package main

import (
	"os"

	"cmon/cmd/agent"
)

func main() {
	os.Exit(agent.Main(agent.DefaultGopher().Command(agent.Stdio()), agent.GopherMessages))
}
