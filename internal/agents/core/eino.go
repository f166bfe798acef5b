package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// parsed carries the parser node's result through the graph so a parse
// failure is reported to the caller as-is instead of as a graph error.
type parsed[T any] struct {
	value T
	raw   string
	err   error
}

// DeterministicChain is a reusable pipeline: Map -> Template -> Model -> Parser -> Output
type DeterministicChain[T any] struct {
	chain compose.Runnable[map[string]any, parsed[T]]
	name  string
}

// ParseError is returned by Invoke when the model answered but its output
// could not be parsed.
type ParseError struct {
	Chain string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse output: %v", e.Chain, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		data, err := json.MarshalIndent(v, "", "  ")
		return string(data), err
	},
}

// NewDeterministicChain creates a standardized Eino chain for deterministic tasks.
// templateStr is a text/template rendered against the Invoke input; a "json"
// function is available for embedding lists and maps.
func NewDeterministicChain[T any](
	ctx context.Context,
	name string,
	chatModel model.BaseChatModel,
	systemPrompt string,
	templateStr string,
	parse func(string) (T, error),
) (*DeterministicChain[T], error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	templateFunc := func(ctx context.Context, input map[string]any) ([]*schema.Message, error) {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, input); err != nil {
			return nil, fmt.Errorf("execute template: %w", err)
		}
		msgs := make([]*schema.Message, 0, 2)
		if systemPrompt != "" {
			msgs = append(msgs, schema.SystemMessage(systemPrompt))
		}
		return append(msgs, schema.UserMessage(buf.String())), nil
	}

	// BaseChatModel wrapped in a lambda so models without tool binding work.
	modelFunc := func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
		return chatModel.Generate(ctx, input)
	}

	parserFunc := func(ctx context.Context, output *schema.Message) (parsed[T], error) {
		if output == nil {
			return parsed[T]{err: fmt.Errorf("empty model response")}, nil
		}
		v, err := parse(output.Content)
		return parsed[T]{value: v, raw: output.Content, err: err}, nil
	}

	graph := compose.NewGraph[map[string]any, parsed[T]]()

	_ = graph.AddLambdaNode("prompt", compose.InvokableLambda(templateFunc))
	_ = graph.AddLambdaNode("model", compose.InvokableLambda(modelFunc))
	_ = graph.AddLambdaNode("parser", compose.InvokableLambda(parserFunc))

	_ = graph.AddEdge(compose.START, "prompt")
	_ = graph.AddEdge("prompt", "model")
	_ = graph.AddEdge("model", "parser")
	_ = graph.AddEdge("parser", compose.END)

	compiled, err := graph.Compile(ctx, compose.WithGraphName(name))
	if err != nil {
		return nil, fmt.Errorf("compile chain: %w", err)
	}

	return &DeterministicChain[T]{chain: compiled, name: name}, nil
}

// Name returns the chain name.
func (c *DeterministicChain[T]) Name() string { return c.name }

// Invoke executes the chain. Transport and template failures are returned
// wrapped; unparseable model output is returned as *ParseError.
func (c *DeterministicChain[T]) Invoke(ctx context.Context, input map[string]any) (T, time.Duration, error) {
	start := time.Now()
	out, err := c.chain.Invoke(ctx, input, compose.WithCallbacks(LogHandler(c.name)))
	duration := time.Since(start)
	if err != nil {
		var zero T
		return zero, duration, fmt.Errorf("%s: %w", c.name, err)
	}
	if out.err != nil {
		return out.value, duration, &ParseError{Chain: c.name, Raw: out.raw, Err: out.err}
	}
	return out.value, duration, nil
}
