// Package classifier talks to the external authenticity model. Screening is
// best-effort: an unreachable classifier degrades submissions, it never
// blocks them.
package classifier

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/veritrust/review-verify/src/RVApi/types"
)

const defaultTimeout = 5 * time.Second

// ErrUnavailable wraps any transport or decode failure from the classifier
// service.
var ErrUnavailable = errors.New("classifier unavailable")

// Result is the authoritative classification vocabulary. The wire labels
// ("fake"/"genuine") are translated at this boundary and nowhere else.
type Result struct {
	FakeProbability int    // 0..100
	Label           string // types.LabelReal or types.LabelFake
	Fallback        bool   // true when the score was substituted locally
}

type Client interface {
	Analyze(ctx context.Context, text string) (*Result, error)
}

// HTTPClient calls the model service's /analyze endpoint.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Analyze(ctx context.Context, text string) (*Result, error) {
	body, err := json.Marshal(map[string]string{"review": text})
	if err != nil {
		return nil, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, raw)
	}

	var out struct {
		FakeProbability float64 `json:"fake_probability"`
		Label           string  `json:"label"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	res := &Result{FakeProbability: int(out.FakeProbability*100 + 0.5)}
	if res.FakeProbability > 100 {
		res.FakeProbability = 100
	}
	if out.Label == "fake" {
		res.Label = types.LabelFake
	} else {
		res.Label = types.LabelReal
	}
	return res, nil
}

// FallbackResult substitutes an UNVERIFIED classification when the model
// cannot be reached. The score is random on purpose so the fallback cannot
// be gamed; the UNVERIFIED label keeps such reviews off the anchor ledger.
func FallbackResult() *Result {
	score := 50
	if n, err := rand.Int(rand.Reader, big.NewInt(101)); err == nil {
		score = int(n.Int64())
	}
	return &Result{FakeProbability: score, Label: types.LabelUnverified, Fallback: true}
}
