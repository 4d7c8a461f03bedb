package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/reaandrew/secscanner/config"
	log "github.com/sirupsen/logrus"
)

var Version string

func setupLogging(cfg config.LoggingConfig) {
	logFile, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to open log file:", err)
		return
	}

	log.SetOutput(logFile)

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	if _, exists := os.LookupEnv("AWS_LAMBDA_FUNCTION_NAME"); exists {
		// Lambda only has /tmp writable and ships logs from stdout.
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		log.Println("Starting in Lambda mode")
		lambda.Start(Handler)
	} else {
		cli := NewCli()
		if err := cli.Execute(); err != nil {
			log.Fatalf("Error executing command: %v", err)
		}
	}
}
