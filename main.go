package main

import "github.com/nextlevelbuilder/goclaw-orchestrator/cmd"

func main() {
	cmd.Execute()
}
