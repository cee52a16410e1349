package main

import (
	"workshop-sync/cmd"
	"workshop-sync/logger"

	_ "go.uber.org/automaxprocs/maxprocs"
)

func main() {
	logger.InitLogger()
	defer logger.Sync() // flush buffered log entries on exit
	cmd.Execute()
}
