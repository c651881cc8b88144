package transport

import (
	"fmt"

	"mapchat/internal/config"
	"mapchat/internal/utils"
)

// New returns the transport for the configured protocol.
func New(cfg config.BackendConfig) (ChatTransport, error) {
	client := utils.NewHTTPClient(cfg.Timeout)

	switch cfg.Protocol {
	case config.ProtocolChat, "":
		return NewHTTPTransport(cfg.BaseURL, client), nil
	case config.ProtocolLegacy:
		return NewLegacyTransport(cfg.BaseURL, client), nil
	default:
		return nil, fmt.Errorf("unknown backend protocol %q", cfg.Protocol)
	}
}
