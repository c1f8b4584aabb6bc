package rpc

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/compression-sdk/pkg/light"
	"github.com/code-payments/compression-sdk/pkg/retry"
	"github.com/code-payments/compression-sdk/pkg/retry/backoff"
	"github.com/code-payments/compression-sdk/pkg/solana"
)

const proverHealthPath = "/health"

var ErrProverUnhealthy = errors.New("prover is unhealthy")

// Rpc bundles the Solana client and the compression indexer client with the
// prover endpoint and the commitment used for confirmations.
type Rpc struct {
	solana.Client
	CompressionClient

	log        *logrus.Entry
	endpoints  Endpoints
	commitment solana.Commitment
	httpClient *http.Client
}

type options struct {
	commitment       solana.Commitment
	rpcOpts          *jsonrpc.RPCClientOpts
	stateTrees       []light.StateTreeInfo
	httpClient       *http.Client
	rateLimit        float64
	accountCacheSize int
}

// Option configures an Rpc.
type Option func(*options)

// WithCommitment sets the commitment used to confirm transactions. Defaults
// to confirmed.
func WithCommitment(commitment solana.Commitment) Option {
	return func(o *options) {
		o.commitment = commitment
	}
}

// WithRPCClientOpts configures the underlying JSON-RPC transport of both
// clients.
func WithRPCClientOpts(opts *jsonrpc.RPCClientOpts) Option {
	return func(o *options) {
		o.rpcOpts = opts
	}
}

// WithStateTreeInfos sets the state trees known to the indexer client.
func WithStateTreeInfos(infos ...light.StateTreeInfo) Option {
	return func(o *options) {
		o.stateTrees = infos
	}
}

// WithRateLimit limits indexer requests to requestsPerSecond for each method.
// Requests over the limit are retried with backoff.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(o *options) {
		o.rateLimit = requestsPerSecond
	}
}

// WithAccountCache caches up to size compressed accounts fetched by hash.
func WithAccountCache(size int) Option {
	return func(o *options) {
		o.accountCacheSize = size
	}
}

// WithHTTPClient sets the client used for prover requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// New returns an Rpc for endpoints. Every endpoint must be a valid http or
// https URL.
func New(endpoints Endpoints, opts ...Option) (*Rpc, error) {
	if err := endpoints.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)

	return newRpc(
		solana.NewWithRPCOptions(endpoints.Rpc, o.rpcOpts),
		newCompressionClient(endpoints.Compression, o),
		endpoints,
		o,
	), nil
}

// NewWithClients returns an Rpc using already constructed clients. The
// endpoints are only used for prover requests.
func NewWithClients(client solana.Client, compression CompressionClient, endpoints Endpoints, opts ...Option) *Rpc {
	return newRpc(client, compression, endpoints, applyOptions(opts))
}

func applyOptions(opts []Option) options {
	o := options{
		commitment: solana.CommitmentConfirmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newRpc(client solana.Client, compression CompressionClient, endpoints Endpoints, o options) *Rpc {
	return &Rpc{
		Client:            client,
		CompressionClient: compression,
		log:               logrus.StandardLogger().WithField("type", "light/rpc"),
		endpoints:         endpoints,
		commitment:        o.commitment,
		httpClient:        o.httpClient,
	}
}

// NewFromConfig returns an Rpc for the endpoints and commitment in cfg.
func NewFromConfig(cfg *Config, opts ...Option) (*Rpc, error) {
	endpoints, err := cfg.Endpoints()
	if err != nil {
		return nil, err
	}

	commitment, err := solana.CommitmentFromString(cfg.Commitment)
	if err != nil {
		return nil, err
	}

	return New(endpoints, append([]Option{WithCommitment(commitment)}, opts...)...)
}

// Endpoints returns the endpoints the Rpc was created with.
func (r *Rpc) Endpoints() Endpoints {
	return r.endpoints
}

// ProverEndpoint returns the validity proof server endpoint.
func (r *Rpc) ProverEndpoint() string {
	return r.endpoints.Prover
}

// Commitment returns the commitment used to confirm transactions.
func (r *Rpc) Commitment() solana.Commitment {
	return r.commitment
}

// CheckProverHealth queries the prover's health endpoint, retrying while the
// prover is unavailable until ctx is done.
func (r *Rpc) CheckProverHealth(ctx context.Context) error {
	endpoint, err := joinPath(r.endpoints.Prover, proverHealthPath)
	if err != nil {
		return err
	}

	_, err = retry.RetryWithContext(
		ctx,
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}

			resp, err := r.httpClient.Do(req)
			if err != nil {
				return errors.Wrap(err, "failed to reach prover")
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusOK:
				return nil
			case resp.StatusCode >= 500:
				return errServiceError
			default:
				return errors.Wrapf(ErrProverUnhealthy, "status %d", resp.StatusCode)
			}
		},
		retry.RetriableErrors(errServiceError),
		retry.Limit(3),
		retry.Backoff(backoff.Linear(250*time.Millisecond), time.Second),
	)
	if err == errServiceError {
		err = errors.Wrap(ErrProverUnhealthy, "service error")
	}
	if err != nil {
		r.log.WithField("endpoint", r.endpoints.Prover).WithError(err).Warn("prover health check failed")
	}
	return err
}

func joinPath(endpoint, path string) (string, error) {
	parsed, err := parseURL(endpoint)
	if err != nil {
		return "", err
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + path
	return parsed.String(), nil
}
