package config

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	log "github.com/sirupsen/logrus"
)

// ParameterScheme prefixes connection URIs stored in SSM Parameter Store.
const ParameterScheme = "ssm://"

// ParameterAPI is the subset of the SSM client used to resolve parameters.
type ParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoadAWSConfig loads the default AWS configuration chain.
func LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewGCSClient creates a Google Cloud Storage client from ambient credentials.
func NewGCSClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return client, nil
}

// IsParameterReference reports whether uri names an SSM parameter.
func IsParameterReference(uri string) bool {
	return strings.HasPrefix(uri, ParameterScheme)
}

// ResolveParameter returns the decrypted value of the parameter named by ref.
// Values that are not parameter references are returned unchanged.
func ResolveParameter(ctx context.Context, api ParameterAPI, ref string) (string, error) {
	if !IsParameterReference(ref) {
		return ref, nil
	}

	name := "/" + strings.TrimLeft(strings.TrimPrefix(ref, ParameterScheme), "/")
	log.Debugf("Resolving connection URI from parameter %s", name)

	out, err := api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	return *out.Parameter.Value, nil
}
