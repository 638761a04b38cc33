package couples

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"strings"
	"time"

	"blueprint-backend/internal/llm"
)

const llmRetryBaseDelay = 300 * time.Millisecond

type retryingLLM struct {
	base      llm.Client
	requestID string
	coupleID  string
}

func newRetryingLLM(base llm.Client, coupleID, requestID string) llm.Client {
	if base == nil {
		return nil
	}
	return retryingLLM{
		base:      base,
		requestID: requestID,
		coupleID:  coupleID,
	}
}

func (r retryingLLM) GenerateCouplesAnalysis(ctx context.Context, input llm.GenerateInput) (json.RawMessage, error) {
	resp, err := r.base.GenerateCouplesAnalysis(ctx, input)
	if err == nil || !shouldRetryLLM(err) {
		return resp, err
	}

	log.Printf("llm retry attempt=1 request_id=%s couple_id=%s error=%s", r.requestID, r.coupleID, sanitizeError(err))
	select {
	case <-time.After(llmRetryBaseDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return r.base.GenerateCouplesAnalysis(ctx, input)
}

func shouldRetryLLM(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
