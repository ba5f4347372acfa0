package procore

import "github.com/brixworks/sitesync/internal/port/provider"

func init() {
	provider.Register(providerName, func(cfg provider.Config) (provider.Provider, error) {
		return NewProvider(cfg.BaseURL, cfg.Tokens, cfg.CompanyID, cfg.Timeout), nil
	})
}
