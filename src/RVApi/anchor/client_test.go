package anchor

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFingerprint = "0x4ba4c937089cfdd9ca4a4c767e2848c5885ef421ab6b53cf18ae7bd4e0bb3dd6"

func TestSubmit(t *testing.T) {
	client := NewGatewayClient("http://anchor.local", nil)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://anchor.local/v1/anchors",
		httpmock.NewStringResponder(201, `{"reference": "anchor-123", "pending": true}`))

	receipt, err := client.Submit(context.Background(), testFingerprint, map[string]string{"kind": "review"})
	require.NoError(t, err)
	assert.Equal(t, "anchor-123", receipt.Ref)
	assert.True(t, receipt.Pending)
}

func TestSubmitSigned(t *testing.T) {
	signer, err := NewSigner("0x2a61ed14ba0b3a383bee69bb29f42bc2ed4b9f6e6a9a1e42fbcf25efba4ad14e", 42)
	require.NoError(t, err)

	client := NewGatewayClient("http://anchor.local", signer)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://anchor.local/v1/anchors",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, signer.Address(), req.Header.Get("X-Anchor-Address"))
			assert.Regexp(t, `^0x[0-9a-f]{128}$`, req.Header.Get("X-Anchor-Signature"))
			return httpmock.NewStringResponse(201, `{"reference": "anchor-456", "pending": true}`), nil
		})

	receipt, err := client.Submit(context.Background(), testFingerprint, nil)
	require.NoError(t, err)
	assert.Equal(t, "anchor-456", receipt.Ref)
}

func TestSubmitFailure(t *testing.T) {
	client := NewGatewayClient("http://anchor.local", nil)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://anchor.local/v1/anchors",
		httpmock.NewStringResponder(502, "ledger unreachable"))

	_, err := client.Submit(context.Background(), testFingerprint, nil)
	assert.ErrorIs(t, err, ErrAnchor)
}

func TestSubmitMissingReference(t *testing.T) {
	client := NewGatewayClient("http://anchor.local", nil)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://anchor.local/v1/anchors",
		httpmock.NewStringResponder(200, `{"pending": true}`))

	_, err := client.Submit(context.Background(), testFingerprint, nil)
	assert.ErrorIs(t, err, ErrAnchor)
}

func TestQueryConfirmed(t *testing.T) {
	client := NewGatewayClient("http://anchor.local", nil)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://anchor.local/v1/anchors/anchor-123",
		httpmock.NewStringResponder(200, `{"settled": true}`))
	httpmock.RegisterResponder("GET", "http://anchor.local/v1/anchors/anchor-999",
		httpmock.NewStringResponder(404, `{"err": "unknown reference"}`))

	settled, err := client.QueryConfirmed(context.Background(), "anchor-123")
	require.NoError(t, err)
	assert.True(t, settled)

	settled, err = client.QueryConfirmed(context.Background(), "anchor-999")
	require.NoError(t, err)
	assert.False(t, settled)
}

func TestSignerFromHex(t *testing.T) {
	signer, err := NewSigner("0x2a61ed14ba0b3a383bee69bb29f42bc2ed4b9f6e6a9a1e42fbcf25efba4ad14e", 42)
	require.NoError(t, err)
	assert.NotEmpty(t, signer.Address())

	sig, err := signer.Sign([]byte("anchor payload"))
	require.NoError(t, err)
	assert.Len(t, sig, 64)
}

func TestSignerRejectsBadKey(t *testing.T) {
	_, err := NewSigner("0xdeadbeef", 42)
	assert.Error(t, err)

	_, err = NewSigner("not a valid mnemonic at all", 42)
	assert.Error(t, err)
}
