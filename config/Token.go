package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	log "github.com/sirupsen/logrus"
)

// ParameterStore is the subset of the SSM client used to read secrets.
type ParameterStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewSSMParameterStore builds an SSM client from the default AWS credential chain.
func NewSSMParameterStore(ctx context.Context) (*ssm.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// ResolveToken returns the endpoint bearer token. An inline token wins over
// the SSM parameter. store is only consulted when a parameter is configured,
// and may be nil otherwise.
func ResolveToken(ctx context.Context, endpoint EndpointConfig, store ParameterStore) (string, error) {
	if endpoint.Token != "" || endpoint.TokenSSMParameter == "" {
		return endpoint.Token, nil
	}
	if store == nil {
		return "", fmt.Errorf("no parameter store available to read '%s'", endpoint.TokenSSMParameter)
	}

	paramName := endpoint.TokenSSMParameter
	result, err := store.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve parameter '%s': %w", paramName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter '%s' has no value", paramName)
	}

	log.WithField("parameter", paramName).Info("Resolved scan endpoint token from SSM")
	return *result.Parameter.Value, nil
}
