package delegation

import (
	"encoding/base64"
	"fmt"
	"io"
)

// Format renders a delegation's archive as a base64 string, the shape a
// delegation takes in a URL, header, or config file.
func Format(d Delegation) (string, error) {
	b, err := io.ReadAll(d.Archive())
	if err != nil {
		return "", fmt.Errorf("formatting delegation: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Parse reverses Format: it decodes a base64-encoded archive and extracts
// the delegation it names.
func Parse(encoded string) (Delegation, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("parsing delegation: %w", err)
	}
	return Extract(data)
}
