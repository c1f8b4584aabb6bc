package rpc

import (
	"net/url"

	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/netutil"
)

const (
	localnetRpcEndpoint         = "http://127.0.0.1:8899"
	localnetCompressionEndpoint = "http://127.0.0.1:8784"
	localnetProverEndpoint      = "http://127.0.0.1:3001"

	devnetEndpoint  = "https://devnet.helius-rpc.com"
	mainnetEndpoint = "https://mainnet.helius-rpc.com"

	apiKeyParam = "api-key"
)

// Endpoints are the three services a compression client talks to.
type Endpoints struct {
	// Solana JSON-RPC
	Rpc string
	// Compression indexer JSON-RPC
	Compression string
	// Validity proof server
	Prover string
}

// LocalnetEndpoints returns the endpoints of a local test validator, indexer
// and prover on their default ports.
func LocalnetEndpoints() Endpoints {
	return Endpoints{
		Rpc:         localnetRpcEndpoint,
		Compression: localnetCompressionEndpoint,
		Prover:      localnetProverEndpoint,
	}
}

// DevnetEndpoints returns the hosted devnet endpoints. A single URL serves all
// three services.
func DevnetEndpoints(apiKey string) (Endpoints, error) {
	return hostedEndpoints(devnetEndpoint, apiKey)
}

// MainnetEndpoints returns the hosted mainnet endpoints.
func MainnetEndpoints(apiKey string) (Endpoints, error) {
	return hostedEndpoints(mainnetEndpoint, apiKey)
}

func hostedEndpoints(base, apiKey string) (Endpoints, error) {
	if len(apiKey) == 0 {
		return Endpoints{}, errors.New("api key is required")
	}

	endpoint, err := WithAPIKey(base, apiKey)
	if err != nil {
		return Endpoints{}, err
	}

	return Endpoints{
		Rpc:         endpoint,
		Compression: endpoint,
		Prover:      endpoint,
	}, nil
}

// WithAPIKey sets the api-key query parameter of endpoint, replacing any
// existing value.
func WithAPIKey(endpoint, apiKey string) (string, error) {
	parsed, err := parseURL(endpoint)
	if err != nil {
		return "", err
	}

	query := parsed.Query()
	query.Set(apiKeyParam, apiKey)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func parseURL(endpoint string) (*url.URL, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid endpoint %q", endpoint)
	}
	return parsed, nil
}

// ValidateEndpoint checks that endpoint is an http or https URL with a valid
// host. Endpoints carrying an api key must use https.
func ValidateEndpoint(endpoint string) error {
	parsed, err := parseURL(endpoint)
	if err != nil {
		return err
	}

	hasAPIKey := len(parsed.Query().Get(apiKeyParam)) > 0
	return netutil.ValidateHttpUrl(endpoint, hasAPIKey)
}

// Validate checks every endpoint, reporting the first invalid one in rpc,
// compression, prover order.
func (e Endpoints) Validate() error {
	for _, endpoint := range []struct {
		name  string
		value string
	}{
		{"rpc", e.Rpc},
		{"compression", e.Compression},
		{"prover", e.Prover},
	} {
		if err := ValidateEndpoint(endpoint.value); err != nil {
			return errors.Wrapf(err, "invalid %s endpoint", endpoint.name)
		}
	}
	return nil
}
