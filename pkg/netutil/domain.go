package netutil

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

// ValidateDomainName checks that value is a registrable host name, such as
// the host of an RPC, indexer or prover endpoint. Internationalized names are
// checked in their ASCII form, including the 63 byte label and 253 byte name
// limits. A single trailing dot is accepted.
func ValidateDomainName(value string) error {
	name := strings.TrimSuffix(value, ".")
	if len(name) == 0 {
		return errors.New("domain name is empty")
	}

	if _, err := idna.Registration.ToASCII(name); err != nil {
		return errors.Wrapf(err, "domain name %q is invalid", value)
	}
	return nil
}
