// Package odoo is a minimal JSON-RPC client for the Odoo external API.
//
// Every call is a blocking POST to <base>/jsonrpc. There is no retry: a failed
// call is reported once and the caller decides what to do with it.
package odoo

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the endpoint and credentials used for the login handshake.
type Config struct {
	URL      string
	Database string
	Username string
	Password string

	// InsecureSkipVerify disables TLS certificate verification toward the ERP.
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Session is the result of a successful common.login.
type Session struct {
	UID             int64
	AuthenticatedAt time.Time
}

// Client executes model methods on a single Odoo database.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger

	mu      sync.RWMutex
	session *Session
}

// New builds a client and performs the login handshake. A failed handshake is
// logged and the returned client stays usable, but every Execute fails with
// ErrAuthentication until Authenticate succeeds.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) *Client {
	c := NewWithoutLogin(cfg, logger)
	if err := c.Authenticate(ctx); err != nil {
		c.logger.Error().Err(err).Str("url", cfg.URL).Msg("Odoo authentication failed")
	}
	return c
}

// NewWithoutLogin builds a client with no session.
func NewWithoutLogin(cfg Config, logger zerolog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Transport: transport, Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "odoo").Logger(),
	}
}

// Authenticate runs common.login and replaces the current session. On failure
// the previous session is dropped.
func (c *Client) Authenticate(ctx context.Context) error {
	raw, err := c.call(ctx, "common", "login", []any{c.cfg.Database, c.cfg.Username, c.cfg.Password})
	if err != nil {
		c.setSession(nil)
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	var uid int64
	if err := json.Unmarshal(raw, &uid); err != nil || uid <= 0 {
		// Odoo answers false on bad credentials.
		c.setSession(nil)
		return fmt.Errorf("%w: login rejected for %q", ErrAuthentication, c.cfg.Username)
	}

	c.setSession(&Session{UID: uid, AuthenticatedAt: time.Now()})
	c.logger.Info().Int64("uid", uid).Msg("Odoo session established")
	return nil
}

// Session returns the current session, if any.
func (c *Client) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// Execute calls object.execute_kw for model/method and returns the raw result.
func (c *Client) Execute(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	session, ok := c.Session()
	if !ok {
		return nil, fmt.Errorf("%w: no session for %s.%s", ErrAuthentication, model, method)
	}
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	raw, err := c.call(ctx, "object", "execute_kw", []any{
		c.cfg.Database,
		session.UID,
		c.cfg.Password,
		model,
		method,
		args,
		kwargs,
	})
	if err != nil {
		var remote *RemoteError
		if !errors.As(err, &remote) {
			remote = &RemoteError{Message: err.Error()}
		}
		remote.Model = model
		remote.Method = method
		c.logger.Error().Err(remote).Msg("Odoo API call failed")
		return nil, remote
	}
	return raw, nil
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int       `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

// call sends one JSON-RPC envelope and returns the result member.
func (c *Client) call(ctx context.Context, service, method string, args []any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      rand.Intn(1000000),
	})
	if err != nil {
		return nil, &RemoteError{Message: "encode request: " + err.Error()}
	}

	endpoint := strings.TrimRight(c.cfg.URL, "/") + "/jsonrpc"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &RemoteError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteError{Message: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{Message: "read response: " + err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(payload))}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: "decode response: " + err.Error()}
	}

	if rawErr, ok := envelope["error"]; ok && string(rawErr) != "null" {
		var rpcErr rpcError
		_ = json.Unmarshal(rawErr, &rpcErr)
		msg := rpcErr.Data.Message
		if msg == "" {
			msg = rpcErr.Message
		}
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: msg, Fault: rpcErr.Data.Name}
	}

	result, ok := envelope["result"]
	if !ok || string(result) == "null" {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: "response has no result"}
	}
	return result, nil
}
