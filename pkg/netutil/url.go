package netutil

import (
	"net"
	"net/url"

	"github.com/pkg/errors"
)

// ValidateHttpUrl validates a URL for an HTTP scheme. The host may be a domain
// name or an IP literal, with an optional port. When requireSecureConnection
// is set, only https is accepted.
func ValidateHttpUrl(value string, requireSecureConnection bool) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return err
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if requireSecureConnection {
			return errors.New("url scheme must be https")
		}
	default:
		return errors.New("url scheme must be http or https")
	}

	hostname := parsed.Hostname()
	if len(hostname) == 0 {
		return errors.New("host component missing")
	}

	if net.ParseIP(hostname) == nil {
		if err := ValidateDomainName(hostname); err != nil {
			return errors.Wrap(err, "host is not a valid domain name")
		}
	}

	if port := parsed.Port(); len(port) > 0 {
		if _, err := net.LookupPort("tcp", port); err != nil {
			return errors.Wrap(err, "invalid port")
		}
	}

	return nil
}
