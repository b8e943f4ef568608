package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfirmerConfig configures WebSocket confirmation behavior.
type WSConfirmerConfig struct {
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
	// WriteTimeout is timeout for writing the subscribe request.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default confirmation configuration.
func DefaultWSConfig() WSConfirmerConfig {
	return WSConfirmerConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WSConfirmer implements Confirmer over a signature subscription. The
// subscription is one-shot: the node notifies once when the signature
// reaches the requested commitment and then drops it, so each confirmation
// uses its own short-lived connection instead of a shared subscription map.
type WSConfirmer struct {
	endpoint  string
	config    WSConfirmerConfig
	requestID atomic.Uint64
}

var _ Confirmer = (*WSConfirmer)(nil)

// NewWSConfirmer creates a confirmer for the given WebSocket endpoint.
func NewWSConfirmer(endpoint string, config *WSConfirmerConfig) *WSConfirmer {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	return &WSConfirmer{endpoint: endpoint, config: cfg}
}

// ConfirmSignature subscribes to the signature at confirmed commitment and
// blocks until the node notifies or the context expires.
func (c *WSConfirmer) ConfirmSignature(ctx context.Context, signature string) (*SignatureConfirmation, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]string{"commitment": "confirmed"},
		},
	}

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	// Context expiry closes the connection so the blocking read unsticks.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("websocket read: %w", err)
		}

		done, conf, err := c.handleMessage(reqID, signature, message)
		if err != nil {
			return nil, err
		}
		if done {
			return conf, nil
		}
	}
}

// handleMessage classifies one incoming frame. Subscription confirmations
// and unrelated notifications are skipped; a signatureNotification for our
// request completes the wait.
func (c *WSConfirmer) handleMessage(reqID uint64, signature string, message []byte) (bool, *SignatureConfirmation, error) {
	var errResp struct {
		ID    uint64 `json:"id"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil && errResp.ID == reqID {
		return false, nil, fmt.Errorf("subscribe failed: RPC error %d: %s", errResp.Error.Code, errResp.Error.Message)
	}

	var notif wsSignatureNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "signatureNotification" && notif.Params != nil {
		return true, &SignatureConfirmation{
			Signature: signature,
			Slot:      notif.Params.Result.Context.Slot,
			Err:       notif.Params.Result.Value.Err,
		}, nil
	}

	return false, nil, nil
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type wsSignatureNotification struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  *wsNotificationParams  `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context wsContext        `json:"context"`
	Value   wsSignatureValue `json:"value"`
}

type wsContext struct {
	Slot uint64 `json:"slot"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}
