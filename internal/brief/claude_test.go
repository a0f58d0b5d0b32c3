package brief

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessageClient struct {
	response string
	err      error

	gotModel  string
	gotSystem string
	gotPrompt string
}

func (s *stubMessageClient) CreateMessage(_ context.Context, model string, _ int64, system, prompt string) (string, error) {
	s.gotModel = model
	s.gotSystem = system
	s.gotPrompt = prompt
	return s.response, s.err
}

func TestClaudeRendererPromptContents(t *testing.T) {
	t.Parallel()

	stub := &stubMessageClient{response: "# Weekly Brief\nPromote P1."}
	r := NewClaudeRenderer(stub, "claude-sonnet-4-5-20250929", 600)

	text, err := r.Render(context.Background(), testPlan())
	require.NoError(t, err)
	assert.Equal(t, "# Weekly Brief\nPromote P1.", text)

	assert.Equal(t, "claude-sonnet-4-5-20250929", stub.gotModel)
	assert.Contains(t, stub.gotSystem, "retail analyst")
	assert.Contains(t, stub.gotPrompt, "P1")
	assert.Contains(t, stub.gotPrompt, "$2080.00")
	assert.Contains(t, stub.gotPrompt, "$120.00")
}

func TestClaudeRendererEmptySelection(t *testing.T) {
	t.Parallel()

	stub := &stubMessageClient{response: "hold prices this week"}
	r := NewClaudeRenderer(stub, "m", 100)

	plan := testPlan()
	plan.Result.PromotedProducts = nil

	_, err := r.Render(context.Background(), plan)
	require.NoError(t, err)
	assert.Contains(t, stub.gotPrompt, "none")
}

func TestClaudeRendererErrors(t *testing.T) {
	t.Parallel()

	failing := NewClaudeRenderer(&stubMessageClient{err: eris.New("api down")}, "m", 100)
	_, err := failing.Render(context.Background(), testPlan())
	assert.Error(t, err)

	empty := NewClaudeRenderer(&stubMessageClient{response: "  \n"}, "m", 100)
	_, err = empty.Render(context.Background(), testPlan())
	assert.Error(t, err)

	_, err = NewClaudeRenderer(&stubMessageClient{}, "m", 100).Render(context.Background(), nil)
	assert.Error(t, err)
}
