/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package wallet bridges to an external wallet agent over a websocket. The
// agent announces the connected account and answers sign requests with the
// digest of the transaction it submitted.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"crowdfund-client-go/internal/builder"
	"crowdfund-client-go/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultSignTimeout    = 2 * time.Minute
	DefaultConnectTimeout = time.Minute

	msgAccount    = "account"
	msgDisconnect = "disconnect"
	msgSign       = "sign"
	msgResult     = "result"
	msgError      = "error"
)

var (
	ErrNotConnected = errors.New("no wallet connected")
	ErrRejected     = errors.New("wallet rejected the request")
	ErrSignTimeout  = errors.New("wallet did not answer in time")
)

// message is the single frame shape exchanged with the wallet agent
type message struct {
	Type        string          `json:"type"`
	Id          string          `json:"id,omitempty"`
	Address     string          `json:"address,omitempty"`
	Transaction json.RawMessage `json:"transaction,omitempty"`
	Digest      string          `json:"digest,omitempty"`
	Message     string          `json:"message,omitempty"`
}

type signResult struct {
	digest string
	err    error
}

// Bridge implements the account provider and sign-and-submit capabilities
// on top of one wallet agent connection at a time.
type Bridge struct {
	listenAddr     string
	signTimeout    time.Duration
	connectTimeout time.Duration

	upgrader websocket.Upgrader
	server   *http.Server

	mutex     sync.RWMutex
	conn      *websocket.Conn
	account   models.Account
	connected bool
	waiting   map[string]chan signResult
	accountCh chan struct{}

	writeMutex sync.Mutex
}

// NewBridge creates a bridge; call Start to listen or mount Handler yourself
func NewBridge(cfg models.WalletConfig) *Bridge {
	signTimeout := cfg.SignTimeout
	if signTimeout <= 0 {
		signTimeout = DefaultSignTimeout
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	return &Bridge{
		listenAddr:     cfg.ListenAddr,
		signTimeout:    signTimeout,
		connectTimeout: connectTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		waiting:   make(map[string]chan signResult),
		accountCh: make(chan struct{}),
	}
}

// Handler returns the websocket endpoint the wallet agent connects to
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(b.serveWS)
}

// Start listens on the configured address in the background
func (b *Bridge) Start() error {
	listener, err := net.Listen("tcp", b.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", b.listenAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/wallet", b.Handler())
	b.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := b.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("Wallet bridge server stopped", zap.Error(err))
		}
	}()

	zap.L().Info("Wallet bridge listening", zap.String("addr", "ws://"+listener.Addr().String()+"/wallet"))
	return nil
}

// Stop closes the listener and the agent connection
func (b *Bridge) Stop(ctx context.Context) error {
	b.mutex.Lock()
	conn := b.conn
	b.mutex.Unlock()
	if conn != nil {
		conn.Close()
	}

	if b.server == nil {
		return nil
	}
	return b.server.Shutdown(ctx)
}

// CurrentAccount returns the account announced by the agent, if any
func (b *Bridge) CurrentAccount() (models.Account, bool) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.account, b.connected
}

// WaitForAccount blocks until the agent announces an account, ctx ends or
// the connect timeout elapses
func (b *Bridge) WaitForAccount(ctx context.Context) (models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, b.connectTimeout)
	defer cancel()

	for {
		b.mutex.RLock()
		account, connected, ch := b.account, b.connected, b.accountCh
		b.mutex.RUnlock()

		if connected {
			return account, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return models.Account{}, fmt.Errorf("%w: %w", ErrNotConnected, ctx.Err())
		}
	}
}

// SignAndExecute asks the agent to sign and submit the transaction. It
// returns the digest reported by the agent.
func (b *Bridge) SignAndExecute(ctx context.Context, descriptor *builder.Descriptor) (string, error) {
	payload, err := json.Marshal(descriptor)
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction: %w", err)
	}

	b.mutex.Lock()
	conn := b.conn
	if conn == nil || !b.connected {
		b.mutex.Unlock()
		return "", ErrNotConnected
	}
	id := uuid.New().String()
	resultCh := make(chan signResult, 1)
	b.waiting[id] = resultCh
	b.mutex.Unlock()

	defer func() {
		b.mutex.Lock()
		delete(b.waiting, id)
		b.mutex.Unlock()
	}()

	zap.L().Info("Requesting wallet signature",
		zap.String("request_id", id),
		zap.String("target", descriptor.Target().String()),
		zap.String("sender", descriptor.Sender()))

	if err := b.write(conn, message{Type: msgSign, Id: id, Address: descriptor.Sender(), Transaction: payload}); err != nil {
		return "", fmt.Errorf("failed to send sign request: %w", err)
	}

	timer := time.NewTimer(b.signTimeout)
	defer timer.Stop()

	select {
	case result := <-resultCh:
		return result.digest, result.err
	case <-timer.C:
		return "", ErrSignTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (b *Bridge) write(conn *websocket.Conn, msg message) error {
	b.writeMutex.Lock()
	defer b.writeMutex.Unlock()
	return conn.WriteJSON(msg)
}

func (b *Bridge) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("Wallet websocket upgrade failed", zap.Error(err))
		return
	}

	// A new agent replaces the previous one
	b.mutex.Lock()
	previous := b.conn
	b.conn = conn
	b.mutex.Unlock()
	if previous != nil {
		previous.Close()
	}

	zap.L().Info("Wallet agent connected", zap.String("remote", r.RemoteAddr))
	defer b.release(conn)

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.L().Debug("Wallet agent read ended", zap.Error(err))
			}
			return
		}
		b.handle(msg)
	}
}

func (b *Bridge) handle(msg message) {
	switch msg.Type {
	case msgAccount:
		if msg.Address == "" {
			zap.L().Warn("Ignoring account announcement without address")
			return
		}
		b.setAccount(models.Account{Address: msg.Address}, true)
		zap.L().Info("Wallet account connected", zap.String("address", msg.Address))
	case msgDisconnect:
		b.setAccount(models.Account{}, false)
		zap.L().Info("Wallet account disconnected")
	case msgResult:
		if msg.Digest == "" {
			b.resolve(msg.Id, signResult{err: fmt.Errorf("%w: empty digest", ErrRejected)})
			return
		}
		b.resolve(msg.Id, signResult{digest: msg.Digest})
	case msgError:
		b.resolve(msg.Id, signResult{err: fmt.Errorf("%w: %s", ErrRejected, msg.Message)})
	default:
		zap.L().Warn("Ignoring unknown wallet message", zap.String("type", msg.Type))
	}
}

func (b *Bridge) setAccount(account models.Account, connected bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.account = account
	b.connected = connected
	if connected {
		close(b.accountCh)
		b.accountCh = make(chan struct{})
	}
}

func (b *Bridge) resolve(id string, result signResult) {
	b.mutex.RLock()
	ch, ok := b.waiting[id]
	b.mutex.RUnlock()
	if !ok {
		zap.L().Warn("Wallet answered unknown request", zap.String("request_id", id))
		return
	}
	select {
	case ch <- result:
	default:
	}
}

// release forgets conn if it is still current and fails its open requests
func (b *Bridge) release(conn *websocket.Conn) {
	conn.Close()

	b.mutex.Lock()
	if b.conn != conn {
		b.mutex.Unlock()
		return
	}
	b.conn = nil
	b.account = models.Account{}
	b.connected = false
	waiting := make([]chan signResult, 0, len(b.waiting))
	for _, ch := range b.waiting {
		waiting = append(waiting, ch)
	}
	b.mutex.Unlock()

	for _, ch := range waiting {
		select {
		case ch <- signResult{err: ErrNotConnected}:
		default:
		}
	}
	zap.L().Info("Wallet agent disconnected")
}
