package core

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (m *echoModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.seen = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *echoModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

type answer struct {
	Items []string `json:"items"`
}

func parseAnswer(s string) (answer, error) {
	return ParseStrictJSON[answer](s, "items")
}

func TestDeterministicChain_Invoke(t *testing.T) {
	m := &echoModel{reply: "Sure!\n```json\n{\"items\": [\"a\", \"b\"]}\n```"}
	chain, err := NewDeterministicChain(context.Background(), "test", m, "You are terse.", "List for {{.topic}}: {{json .seed}}", parseAnswer)
	require.NoError(t, err)
	assert.Equal(t, "test", chain.Name())

	out, _, err := chain.Invoke(context.Background(), map[string]any{"topic": "x", "seed": []string{"z"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Items)

	require.Len(t, m.seen, 2)
	assert.Equal(t, schema.System, m.seen[0].Role)
	assert.Equal(t, "You are terse.", m.seen[0].Content)
	assert.Contains(t, m.seen[1].Content, "List for x:")
	assert.Contains(t, m.seen[1].Content, `"z"`)
}

func TestDeterministicChain_ParseError(t *testing.T) {
	m := &echoModel{reply: "I cannot answer in JSON."}
	chain, err := NewDeterministicChain(context.Background(), "strict", m, "", "{{.q}}", parseAnswer)
	require.NoError(t, err)

	_, _, err = chain.Invoke(context.Background(), map[string]any{"q": "?"})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "strict", pe.Chain)
	assert.Equal(t, "I cannot answer in JSON.", pe.Raw)
	assert.Len(t, m.seen, 1)
}

func TestDeterministicChain_ModelError(t *testing.T) {
	m := &echoModel{err: errors.New("connection refused")}
	chain, err := NewDeterministicChain(context.Background(), "down", m, "", "{{.q}}", parseAnswer)
	require.NoError(t, err)

	_, _, err = chain.Invoke(context.Background(), map[string]any{"q": "?"})
	require.Error(t, err)
	var pe *ParseError
	assert.False(t, errors.As(err, &pe))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDeterministicChain_MissingTemplateKey(t *testing.T) {
	chain, err := NewDeterministicChain(context.Background(), "tmpl", &echoModel{reply: "{}"}, "", "{{.missing}}", parseAnswer)
	require.NoError(t, err)

	_, _, err = chain.Invoke(context.Background(), map[string]any{})
	assert.ErrorContains(t, err, "execute template")
}

func TestNodeName(t *testing.T) {
	assert.Equal(t, "unknown", nodeName(nil))
	assert.Equal(t, "parser", nodeName(&callbacks.RunInfo{Name: "parser"}))
	assert.Equal(t, "Lambda", nodeName(&callbacks.RunInfo{Component: "Lambda"}))
}
