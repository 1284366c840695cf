package updater

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/oshokin/release-channels/internal/domain/channel"
)

// endpointFormat leaves target, arch and current_version for the update service to fill.
const endpointFormat = "https://%s/update/%s/%s/{{target}}-{{arch}}/{{current_version}}"

// EndpointBuilder renders the version-check URL template for a channel.
type EndpointBuilder struct {
	host string
	org  string
	app  string
}

// NewEndpointBuilder validates the identifiers once so Build cannot fail later
// for a well-formed configuration.
func NewEndpointBuilder(host, org, app string) (*EndpointBuilder, error) {
	identifiers := [...]struct{ name, value string }{
		{"host", host},
		{"org", org},
		{"app", app},
	}

	for _, id := range identifiers {
		if id.value == "" || strings.ContainsAny(id.value, "/?#") {
			return nil, fmt.Errorf("%w: %s %q", ErrInvalidEndpoint, id.name, id.value)
		}
	}

	b := &EndpointBuilder{
		host: host,
		org:  org,
		app:  app,
	}

	if _, err := b.Build(channel.Stable); err != nil {
		return nil, err
	}

	return b, nil
}

// Build returns the check URL template for c.
// Stable adds no query; other channels append ?channel=<tag>.
func (b *EndpointBuilder) Build(c channel.Channel) (string, error) {
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %w", ErrInvalidEndpoint, channel.ErrUnknown)
	}

	endpoint := fmt.Sprintf(endpointFormat, b.host, b.org, b.app)
	if !c.IsDefault() {
		endpoint += "?" + url.Values{"channel": {c.String()}}.Encode()
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("%w: empty host", ErrInvalidEndpoint)
	}

	// The raw form is returned: url.URL.String would percent-encode the placeholders.
	return endpoint, nil
}
