package confidential

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/halcyonex/routerd/internal/core/types"
)

// HTTPCollaborator talks to a confidentiality service over JSON HTTP. It
// implements Collaborator.
type HTTPCollaborator struct {
	endpoint string
	http     *http.Client
}

// NewHTTPCollaborator creates a client for the given endpoint.
func NewHTTPCollaborator(endpoint string) *HTTPCollaborator {
	return &HTTPCollaborator{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type decryptRequest struct {
	Identity string `json:"identity"`
	Session  string `json:"session"`
}

type decryptResponse struct {
	Found         bool   `json:"found"`
	ReceiveAmount uint64 `json:"receive_amount"`
	MinPrice      uint64 `json:"min_price"`
	MaxPrice      uint64 `json:"max_price"`
}

type encryptRequest struct {
	Identity      string `json:"identity"`
	ReceiveAmount uint64 `json:"receive_amount"`
	MinPrice      uint64 `json:"min_price"`
	MaxPrice      uint64 `json:"max_price"`
}

type encryptResponse struct {
	Sealed string `json:"sealed"`
}

type existsResponse struct {
	Found bool `json:"found"`
}

// IsEncrypted reports whether the service holds parameters for the identity.
func (c *HTTPCollaborator) IsEncrypted(ctx context.Context, identity [IdentitySize]byte) bool {
	var res existsResponse
	err := c.post(ctx, "/v1/exists", decryptRequest{Identity: hex.EncodeToString(identity[:])}, &res)
	return err == nil && res.Found
}

// Decrypt returns the real parameters for the identity.
func (c *HTTPCollaborator) Decrypt(ctx context.Context, identity [IdentitySize]byte, session []byte) (*types.IntentParams, error) {
	var res decryptResponse
	err := c.post(ctx, "/v1/decrypt", decryptRequest{
		Identity: hex.EncodeToString(identity[:]),
		Session:  base64.StdEncoding.EncodeToString(session),
	}, &res)
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, fmt.Errorf("confidential: no parameters for identity")
	}
	return &types.IntentParams{
		ReceiveAmount: res.ReceiveAmount,
		MinPrice:      res.MinPrice,
		MaxPrice:      res.MaxPrice,
	}, nil
}

// Encrypt seals parameters under the identity.
func (c *HTTPCollaborator) Encrypt(ctx context.Context, params types.IntentParams, identity [IdentitySize]byte) ([]byte, error) {
	var res encryptResponse
	err := c.post(ctx, "/v1/encrypt", encryptRequest{
		Identity:      hex.EncodeToString(identity[:]),
		ReceiveAmount: params.ReceiveAmount,
		MinPrice:      params.MinPrice,
		MaxPrice:      params.MaxPrice,
	}, &res)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(res.Sealed)
}

func (c *HTTPCollaborator) post(ctx context.Context, path string, body, result any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("confidential: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("confidential: %s: http %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
