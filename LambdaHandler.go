package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/reaandrew/secscanner/config"
	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/notifiers"
	"github.com/reaandrew/secscanner/orchestrator"
	"github.com/reaandrew/secscanner/repositories"
	log "github.com/sirupsen/logrus"
)

const lambdaHistoryPath = "/tmp/secscanner-history.json"

// lambdaApp builds the session for one invocation. Tests replace it.
var lambdaApp = func(ctx context.Context) (*App, error) {
	cfg, err := config.Load(os.Getenv("SECSCANNER_CONFIG"))
	if err != nil {
		return nil, err
	}
	if cfg.History.Backend == repositories.BackendFile && cfg.History.Path == "" {
		cfg.History.Path = lambdaHistoryPath
	}
	return NewApp(ctx, cfg, notifiers.LogNotifier{})
}

// LambdaRequest accepts the scan request fields plus the legacy "repo" key.
type LambdaRequest struct {
	core.ScanRequest
	Repo string `json:"repo"`
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var lambdaReq LambdaRequest
	if err := json.Unmarshal([]byte(request.Body), &lambdaReq); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return errorResponse(400, "Invalid JSON format."), nil
	}

	scanRequest := lambdaReq.ScanRequest
	if scanRequest.Repository == "" {
		scanRequest.Repository = lambdaReq.Repo
	}
	scanRequest.Repository = strings.TrimSpace(scanRequest.Repository)
	if scanRequest.Repository == "" {
		errMsg := "The 'repository' field is required in the JSON request."
		log.Println(errMsg)
		return errorResponse(400, errMsg), nil
	}

	app, err := lambdaApp(ctx)
	if err != nil {
		log.Printf("Error initializing scanner: %v", err)
		return errorResponse(500, err.Error()), nil
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing scan history: %v", err)
		}
	}()

	result, err := app.Orchestrator.RunScan(ctx, scanRequest)
	if errors.Is(err, orchestrator.ErrScanInProgress) {
		return errorResponse(409, err.Error()), nil
	}
	if err != nil {
		return errorResponse(500, err.Error()), nil
	}

	body, err := json.Marshal(result)
	if err != nil {
		return errorResponse(500, err.Error()), nil
	}
	return toAPIGatewayResponse(200, string(body)), nil
}

func errorResponse(statusCode int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]string{"error": message})
	return toAPIGatewayResponse(statusCode, string(body))
}

// toAPIGatewayResponse wraps a JSON body for API Gateway
func toAPIGatewayResponse(statusCode int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode:      statusCode,
		Headers:         map[string]string{"Content-Type": "application/json"},
		Body:            body,
		IsBase64Encoded: false,
	}
}
