package ports

import "context"

// TextGenerator submits a prompt to a text-generation model.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, apiKey string) (string, error)
}
