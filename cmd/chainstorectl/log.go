package main

import (
	"fmt"
	"os"

	"github.com/kaspanet/chainstore/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CTL")

func initLog(logFile, errLogFile string) {
	err := logger.InitLog(logFile, errLogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing the logger: %s\n", err)
		os.Exit(1)
	}
}
