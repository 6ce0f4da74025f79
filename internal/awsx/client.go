/*
Package awsx builds the AWS SDK v2 client this service shares across every
request.

PURPOSE:
  Spec section 9's first Design Note calls out the original's AWSManager
  as a global, lazily-initialized backend handle and asks for an explicit
  resource value instead, owned by the top-level server object and
  threaded by reference into each per-request engine instance. Client is
  that value: built once in cmd/server/main.go, passed down to
  internal/dynamo.Store, torn down (nothing to tear down explicitly - the
  SDK's http.Client owns its own connection pool) on shutdown.

CONNECTION POOL / RETRY / TIMEOUT:
  Settings.ClientMaxPoolConnections bounds the shared http.Transport's
  MaxIdleConnsPerHost; Settings.ClientMaxAttempts configures the SDK's
  retryer; Settings.ClientConnectTimeout/ClientReadTimeout bound the
  per-attempt deadline. These mirror the original's core/aws.py
  botocore.config.Config(retries=..., connect_timeout=..., read_timeout=...,
  max_pool_connections=...).

SEE ALSO:
  - internal/config/config.go: Settings, the source of every tunable here
  - internal/dynamo/store.go: the only consumer of the *dynamodb.Client
*/
package awsx

import (
	"context"
	"net"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/warp/wallet-service/internal/config"
)

// Client bundles the DynamoDB client this service needs. It holds no
// other state and is safe for concurrent use by many request-scoped
// engines at once.
type Client struct {
	DynamoDB *dynamodb.Client
}

// New builds a Client from Settings. Call once at process startup.
func New(ctx context.Context, s *config.Settings) (*Client, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: s.ClientMaxPoolConnections,
			DialContext: (&net.Dialer{
				Timeout: s.ClientConnectTimeout,
			}).DialContext,
		},
		Timeout: s.ClientReadTimeout,
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.AWSRegionName),
		awsconfig.WithRetryMaxAttempts(s.ClientMaxAttempts),
		awsconfig.WithHTTPClient(httpClient),
	}
	if s.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AWSAccessKeyID, s.AWSSecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	var dynamoOpts []func(*dynamodb.Options)
	if s.DynamoDBEndpointURL != "" {
		endpoint := s.DynamoDBEndpointURL
		dynamoOpts = append(dynamoOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &Client{
		DynamoDB: dynamodb.NewFromConfig(cfg, dynamoOpts...),
	}, nil
}

// ReadTimeoutBudget returns a context bounded by the configured read and
// connect timeout, for Store operations that don't already carry a
// deadline of their own.
func ReadTimeoutBudget(ctx context.Context, s *config.Settings) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.ClientReadTimeout+s.ClientConnectTimeout)
}
