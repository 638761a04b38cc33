package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts text-generation providers for couples analysis.
type Client interface {
	GenerateCouplesAnalysis(ctx context.Context, input GenerateInput) (json.RawMessage, error)
}

// PartnerProfile is one partner's quiz outcome as fed to the generator.
type PartnerProfile struct {
	Name      string
	Primary   string
	Secondary string
	Scores    [5]float64
}

// GenerateInput captures the inputs needed for a couples analysis.
type GenerateInput struct {
	CoupleID      string
	PartnerA      PartnerProfile
	PartnerB      PartnerProfile
	PromptVersion string
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// GenerateCouplesAnalysis returns ErrNotImplemented.
func (PlaceholderClient) GenerateCouplesAnalysis(ctx context.Context, input GenerateInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
