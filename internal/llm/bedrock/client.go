package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"chatrelay/internal/config"
	"chatrelay/internal/domain"
)

// Settings is the explicit configuration of the generation backend. The
// client is constructed once from these at startup and injected; nothing is
// read from the environment per call.
type Settings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// ModelID is the default model, used when a turn doesn't resolve a
	// model through the catalog.
	ModelID   string
	MaxTokens int
}

// Client invokes an AWS Bedrock text model. One InvokeModel round-trip per
// turn, no retry; the transport's default timeout is the only deadline.
type Client struct {
	runtime  *bedrockruntime.Client
	settings Settings
	logger   *slog.Logger
}

// New creates a Bedrock client. Construction succeeds even when settings are
// incomplete so the server can start on a misconfigured deployment; Ready
// reports the missing pieces and gates every turn.
func New(ctx context.Context, settings Settings, logger *slog.Logger) (*Client, error) {
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = config.DefaultMaxTokens
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(settings.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Client{
		runtime:  bedrockruntime.NewFromConfig(cfg),
		settings: settings,
		logger:   logger,
	}, nil
}

// Ready reports whether the backend is fully configured. Pure configuration
// check, no network call.
func (c *Client) Ready() error {
	if c.settings.AccessKeyID == "" || c.settings.SecretAccessKey == "" {
		return fmt.Errorf("%w: AWS credentials are missing", domain.ErrConfig)
	}
	if c.settings.Region == "" {
		return fmt.Errorf("%w: AWS region is missing", domain.ErrConfig)
	}
	if c.settings.ModelID == "" {
		return fmt.Errorf("%w: Bedrock model id is missing", domain.ErrConfig)
	}
	return nil
}

// invokeRequest is the InvokeModel body for text-completion models.
type invokeRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type invokeResponse struct {
	Completion string `json:"completion"`
}

// Generate produces a reply for the prompt in a single attempt.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	if model == "" {
		model = c.settings.ModelID
	}

	body, err := json.Marshal(invokeRequest{
		Prompt:    prompt,
		MaxTokens: c.settings.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal invoke request: %w", err)
	}

	out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		c.logger.Error("bedrock invoke failed", "model", model, "error", err.Error())
		return "", fmt.Errorf("%w: invoke model", domain.ErrUpstream)
	}

	reply, err := decodeCompletion(out.Body)
	if err != nil {
		c.logger.Error("bedrock response unusable", "model", model, "error", err.Error())
		return "", err
	}

	return reply, nil
}

// decodeCompletion extracts the reply text from an InvokeModel payload. A
// non-JSON payload and a JSON payload without a completion are treated the
// same: the turn fails upstream and no assistant message is persisted.
func decodeCompletion(raw []byte) (string, error) {
	var resp invokeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: malformed response payload", domain.ErrUpstream)
	}
	if resp.Completion == "" {
		return "", fmt.Errorf("%w: response payload has no completion", domain.ErrUpstream)
	}
	return resp.Completion, nil
}
