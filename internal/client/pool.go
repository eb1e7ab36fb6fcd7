package client

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/AlexZinkM/flow-wallet/internal/logger"

	"github.com/gagliardetto/solana-go/rpc"
)

// LedgerPool hands out one LedgerClient per RPC endpoint. The backend picks
// the endpoint per flow, so clients are created lazily and cached.
type LedgerPool struct {
	mu      sync.Mutex
	opts    LedgerOptions
	log     *logger.Logger
	dial    func(endpoint string) RPC
	clients map[string]*LedgerClient
}

// NewLedgerPool creates a pool; opts.Endpoint is the default endpoint used
// when a flow does not name one.
func NewLedgerPool(opts LedgerOptions, log *logger.Logger) *LedgerPool {
	return &LedgerPool{
		opts: opts,
		log:  log,
		dial: func(endpoint string) RPC {
			return rpc.New(endpoint)
		},
		clients: make(map[string]*LedgerClient),
	}
}

// Get returns the client for endpoint, or for the default endpoint when
// endpoint is empty.
func (p *LedgerPool) Get(endpoint string) (*LedgerClient, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = strings.TrimRight(p.opts.Endpoint, "/")
	}

	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid RPC endpoint %q", endpoint)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[endpoint]; ok {
		return c, nil
	}

	opts := p.opts
	opts.Endpoint = endpoint
	c := NewLedgerClient(p.dial(endpoint), opts, p.log)
	p.clients[endpoint] = c
	return c, nil
}
