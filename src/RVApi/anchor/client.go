// Package anchor submits content fingerprints to the immutable ledger
// through an anchoring gateway. The gateway owns transport details (fees,
// signing of the chain transaction itself); this client only submits records
// and queries settlement.
package anchor

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	settlePollStep = 3 * time.Second
)

// ErrAnchor wraps any failed anchoring attempt. A review is never marked
// anchored unless submission succeeded with a reference.
var ErrAnchor = errors.New("anchor submission failed")

// Receipt acknowledges a submission. Pending means the record was accepted
// but not yet settled on the ledger.
type Receipt struct {
	Ref     string `json:"reference"`
	Pending bool   `json:"pending"`
}

type Client interface {
	// Submit records a fingerprint on the ledger. Blocks until the gateway
	// accepts the submission, not until settlement.
	Submit(ctx context.Context, fingerprint string, meta map[string]string) (*Receipt, error)
	// AwaitSettlement polls until the reference settles or ctx expires.
	AwaitSettlement(ctx context.Context, ref string) (bool, error)
	// QueryConfirmed is an idempotent read of a reference's settlement state.
	QueryConfirmed(ctx context.Context, ref string) (bool, error)
}

// GatewayClient talks JSON over HTTP to the anchoring gateway. Requests are
// signed so the gateway can attribute them.
type GatewayClient struct {
	endpoint   string
	httpClient *http.Client
	signer     Signer
}

func NewGatewayClient(endpoint string, signer Signer) *GatewayClient {
	return &GatewayClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		signer:     signer,
	}
}

func (c *GatewayClient) Submit(ctx context.Context, fingerprint string, meta map[string]string) (*Receipt, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"fingerprint": fingerprint,
		"meta":        meta,
	})
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/anchors", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build submission: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.signer != nil {
		sig, err := c.signer.Sign(payload)
		if err != nil {
			return nil, fmt.Errorf("sign submission: %w", err)
		}
		req.Header.Set("X-Anchor-Address", c.signer.Address())
		req.Header.Set("X-Anchor-Signature", "0x"+hex.EncodeToString(sig))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnchor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrAnchor, resp.StatusCode, raw)
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("%w: decode receipt: %v", ErrAnchor, err)
	}
	if receipt.Ref == "" {
		return nil, fmt.Errorf("%w: gateway returned no reference", ErrAnchor)
	}
	return &receipt, nil
}

func (c *GatewayClient) QueryConfirmed(ctx context.Context, ref string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/anchors/"+ref, nil)
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrAnchor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("%w: status %d: %s", ErrAnchor, resp.StatusCode, raw)
	}

	var out struct {
		Settled bool `json:"settled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("%w: decode query: %v", ErrAnchor, err)
	}
	return out.Settled, nil
}

// AwaitSettlement tolerates arbitrary settlement latency; the caller bounds
// it through ctx.
func (c *GatewayClient) AwaitSettlement(ctx context.Context, ref string) (bool, error) {
	ticker := time.NewTicker(settlePollStep)
	defer ticker.Stop()

	for {
		settled, err := c.QueryConfirmed(ctx, ref)
		if err == nil && settled {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
