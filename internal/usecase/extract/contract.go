package extract

import "context"

// Completer produces one raw completion for a prompt. Implementations wrap a
// single provider credential; the service owns rotation and fallback.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider pairs a completer with the label used in logs and metrics.
type Provider struct {
	Name      string
	Completer Completer
}
