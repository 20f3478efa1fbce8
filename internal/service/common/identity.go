//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
)

// DefaultResponderID derives a responder identity from the host name, used
// when a console is not given an explicit identity.
func DefaultResponderID() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("hostname: %w", err)
	}

	return hostname, nil
}
