package embedding

import "context"

// Provider contract
type Provider interface {
	// Create generates one embedding per text, in input order, using the specified model.
	Create(ctx context.Context, model string, texts ...string) ([][]float32, error)
}
