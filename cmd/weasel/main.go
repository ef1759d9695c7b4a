package main

import (
	"os"

	"cmon/cmd/agent"
)

func main() {
	os.Exit(agent.Main(agent.DefaultWeasel().Command(agent.Stdio()), agent.WeaselMessages))
}
