package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/explorer/internal/cli"
	"github.com/temirov/explorer/internal/utils"
)

// main is the entry point for the explorer command.
func main() {
	loggerLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(loggerLevel)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer func() { _ = loggerInstance.Sync() }()
	if applicationExecutionError := cli.Execute(context.Background(), loggerInstance, loggerLevel); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage, zap.Error(applicationExecutionError))
	}
}
