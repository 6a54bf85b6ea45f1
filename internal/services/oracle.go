package services

import (
	"context"
	"errors"
)

// ErrNoObject is returned by GenerateObject when the oracle explicitly
// declines to produce an object (a literal null), as opposed to failing.
var ErrNoObject = errors.New("oracle returned no object")

// Oracle is the external narrative text-generation service. It is
// consulted for free-text prose and for schema-shaped objects; either
// call may fail with a transport or validation error.
type Oracle interface {
	// GenerateText returns a prose completion for the prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateObject asks for a JSON object matching the shape of out
	// and decodes into it. Returns ErrNoObject when the oracle answers
	// with an explicit null.
	GenerateObject(ctx context.Context, prompt string, out any) error
}
