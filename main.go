package main

import "github.com/nextlevelbuilder/goclaw-analytics/cmd"

func main() {
	cmd.Execute()
}
