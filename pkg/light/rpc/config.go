package rpc

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the endpoints and defaults used to construct an Rpc.
type Config struct {
	RpcEndpoint         string `mapstructure:"rpc_endpoint"`
	CompressionEndpoint string `mapstructure:"compression_endpoint"`
	ProverEndpoint      string `mapstructure:"prover_endpoint"`

	// Commitment used when confirming transactions. One of processed,
	// confirmed or finalized.
	Commitment string `mapstructure:"commitment"`

	// APIKey is appended as the api-key query parameter of every endpoint,
	// as expected by hosted providers.
	APIKey string `mapstructure:"api_key"`
}

var defaultConfig = Config{
	RpcEndpoint:         localnetRpcEndpoint,
	CompressionEndpoint: localnetCompressionEndpoint,
	ProverEndpoint:      localnetProverEndpoint,
	Commitment:          "confirmed",
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("rpc_endpoint", defaultConfig.RpcEndpoint)
	v.SetDefault("compression_endpoint", defaultConfig.CompressionEndpoint)
	v.SetDefault("prover_endpoint", defaultConfig.ProverEndpoint)
	v.SetDefault("commitment", defaultConfig.Commitment)
	v.SetDefault("api_key", defaultConfig.APIKey)

	_ = v.BindEnv("rpc_endpoint", "LIGHT_RPC_ENDPOINT")
	_ = v.BindEnv("compression_endpoint", "LIGHT_COMPRESSION_ENDPOINT")
	_ = v.BindEnv("prover_endpoint", "LIGHT_PROVER_ENDPOINT")
	_ = v.BindEnv("commitment", "LIGHT_COMMITMENT")
	_ = v.BindEnv("api_key", "LIGHT_API_KEY")

	return v
}

// LoadConfig returns the localnet defaults overridden by any LIGHT_*
// environment variables.
func LoadConfig() (*Config, error) {
	return unmarshalConfig(newViper())
}

// LoadConfigFile is LoadConfig with an additional config file, whose values
// take precedence over defaults but not over the environment.
func LoadConfigFile(path string) (*Config, error) {
	v := newViper()

	// viper doesn't report a missing file that was explicitly set as
	// ConfigFileNotFoundError, so check for it up front.
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "config file %s", path)
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	return unmarshalConfig(v)
}

func unmarshalConfig(v *viper.Viper) (*Config, error) {
	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// Endpoints returns the configured endpoints, with the API key applied.
func (c *Config) Endpoints() (Endpoints, error) {
	endpoints := Endpoints{
		Rpc:         c.RpcEndpoint,
		Compression: c.CompressionEndpoint,
		Prover:      c.ProverEndpoint,
	}
	if len(c.APIKey) == 0 {
		return endpoints, nil
	}

	var err error
	if endpoints.Rpc, err = WithAPIKey(endpoints.Rpc, c.APIKey); err != nil {
		return endpoints, err
	}
	if endpoints.Compression, err = WithAPIKey(endpoints.Compression, c.APIKey); err != nil {
		return endpoints, err
	}
	if endpoints.Prover, err = WithAPIKey(endpoints.Prover, c.APIKey); err != nil {
		return endpoints, err
	}
	return endpoints, nil
}
