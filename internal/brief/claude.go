package brief

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/northcart/promoplan/internal/promo"
)

// systemPrompt frames the model as the analyst writing the weekly brief.
const systemPrompt = `You are a senior retail analyst writing a weekly brief for a store manager. Based on the results from the promotion optimization model, write a concise, professional, and actionable summary. Structure your response with a clear heading, a brief summary, and a list of actionable next steps for the store manager.`

// MessageClient is the slice of the Anthropic API the renderer needs.
type MessageClient interface {
	CreateMessage(ctx context.Context, model string, maxTokens int64, system, prompt string) (string, error)
}

// ClaudeRenderer generates the brief with a Claude model.
type ClaudeRenderer struct {
	client    MessageClient
	model     string
	maxTokens int64
}

// NewClaudeRenderer creates a ClaudeRenderer with the given client, model
// ID, and response token cap.
func NewClaudeRenderer(client MessageClient, model string, maxTokens int64) *ClaudeRenderer {
	return &ClaudeRenderer{client: client, model: model, maxTokens: maxTokens}
}

func (r *ClaudeRenderer) Render(ctx context.Context, plan *promo.Plan) (string, error) {
	if plan == nil || plan.Result == nil {
		return "", eris.New("brief: nil plan or result")
	}

	products := "none"
	if len(plan.Result.PromotedProducts) > 0 {
		products = strings.Join(plan.Result.PromotedProducts, ", ")
	}
	prompt := fmt.Sprintf(`The data is as follows:
- Products to promote (by ID): %s
- Maximum expected weekly revenue: $%.2f
- Total cost of discounts: $%.2f (budget $%.2f)
- Candidate products considered: %d`,
		products,
		plan.Result.ExpectedRevenue,
		plan.Result.DiscountCost,
		plan.Budget,
		len(plan.Summary),
	)

	text, err := r.client.CreateMessage(ctx, r.model, r.maxTokens, systemPrompt, prompt)
	if err != nil {
		return "", eris.Wrap(err, "brief: claude render")
	}
	if strings.TrimSpace(text) == "" {
		return "", eris.New("brief: empty model response")
	}

	zap.L().Debug("brief: claude rendered",
		zap.String("model", r.model),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

// sdkClient implements MessageClient using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
}

// NewMessageClient creates an Anthropic-backed MessageClient.
func NewMessageClient(apiKey string) MessageClient {
	return &sdkClient{client: sdk.NewClient(option.WithAPIKey(apiKey))}
}

func (c *sdkClient) CreateMessage(ctx context.Context, model string, maxTokens int64, system, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: maxTokens,
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
