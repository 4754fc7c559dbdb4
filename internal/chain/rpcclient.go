package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// RPCClient talks JSON-RPC over HTTP to a fullnode and upgrades to a
// websocket for push subscriptions. It implements Client.
type RPCClient struct {
	endpoint   string
	wsEndpoint string
	http       *http.Client
	nextID     atomic.Uint64
}

// NewRPCClient creates a client for the given HTTP endpoint.
func NewRPCClient(endpoint string) *RPCClient {
	return &RPCClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *RPCClient) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chain: rpc %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chain: rpc %s: http %d", method, resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("chain: rpc %s: decode: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("chain: rpc %s: %d %s", method, rr.Error.Code, rr.Error.Message)
	}
	if result != nil {
		if err := json.Unmarshal(rr.Result, result); err != nil {
			return fmt.Errorf("chain: rpc %s: result: %w", method, err)
		}
	}
	return nil
}

type eventPage struct {
	Data        []RawEvent   `json:"data"`
	NextCursor  *EventCursor `json:"nextCursor"`
	HasNextPage bool         `json:"hasNextPage"`
}

// QueryEvents pages events emitted by the protocol package after cursor.
func (c *RPCClient) QueryEvents(ctx context.Context, packageID string, cursor *EventCursor, limit int) ([]RawEvent, *EventCursor, error) {
	filter := map[string]any{"MoveModule": map[string]any{"package": packageID, "module": "events"}}
	var cursorParam any
	if cursor != nil {
		cursorParam = cursor
	}
	var page eventPage
	if err := c.call(ctx, "queryEvents", []any{filter, cursorParam, limit, false}, &page); err != nil {
		return nil, cursor, err
	}
	next := cursor
	if page.NextCursor != nil {
		next = page.NextCursor
	}
	return page.Data, next, nil
}

// SetWSEndpoint overrides the websocket endpoint derived from the HTTP one.
func (c *RPCClient) SetWSEndpoint(endpoint string) {
	c.wsEndpoint = endpoint
}

// SubscribeEvents opens a websocket push subscription. Unless overridden,
// the websocket URL is derived from the HTTP endpoint.
func (c *RPCClient) SubscribeEvents(ctx context.Context, packageID string) (Subscription, error) {
	wsURL := c.wsEndpoint
	if wsURL == "" {
		wsURL = strings.Replace(c.endpoint, "http", "ws", 1)
	}
	return dialEventSubscription(ctx, wsURL, packageID)
}

type objectResult struct {
	Data struct {
		Content json.RawMessage `json:"content"`
	} `json:"data"`
}

// GetObject fetches an object's content, used for dynamic field lookups.
func (c *RPCClient) GetObject(ctx context.Context, objectID string) (json.RawMessage, error) {
	var res objectResult
	opts := map[string]any{"showContent": true}
	if err := c.call(ctx, "getObject", []any{objectID, opts}, &res); err != nil {
		return nil, err
	}
	return res.Data.Content, nil
}

type executeResponse struct {
	Digest  string `json:"digest"`
	Effects struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
		GasUsed GasBreakdown    `json:"gasUsed"`
		Created []CreatedObject `json:"created"`
	} `json:"effects"`
}

// ExecuteTransaction submits a signed transaction and waits for effects.
func (c *RPCClient) ExecuteTransaction(ctx context.Context, txBytes []byte, signature []byte) (*ExecuteResult, error) {
	params := []any{
		base64.StdEncoding.EncodeToString(txBytes),
		[]string{base64.StdEncoding.EncodeToString(signature)},
		map[string]any{"showEffects": true},
		"WaitForLocalExecution",
	}
	var res executeResponse
	if err := c.call(ctx, "executeTransactionBlock", params, &res); err != nil {
		return nil, err
	}
	out := &ExecuteResult{
		Success:        res.Effects.Status.Status == "success",
		Status:         res.Effects.Status.Status,
		Digest:         res.Digest,
		Gas:            res.Effects.GasUsed,
		CreatedObjects: res.Effects.Created,
	}
	if !out.Success && res.Effects.Status.Error != "" {
		out.Status = res.Effects.Status.Error
	}
	return out, nil
}
