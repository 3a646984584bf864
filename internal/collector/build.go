package collector

import (
	"fmt"

	"StockSentinel/internal/config"
)

// BuildAdapters instantiates the configured sources in order, skipping disabled ones.
func BuildAdapters(sources []config.Source, proxyURL string) ([]SourceAdapter, error) {
	adapters := make([]SourceAdapter, 0, len(sources))
	for _, s := range sources {
		if s.Disabled {
			continue
		}
		switch s.Kind {
		case config.SourceYahoo:
			a := NewYahooAdapter(proxyURL)
			if s.BaseURL != "" {
				a.BaseURL = s.BaseURL
			}
			adapters = append(adapters, a)
		case config.SourceRelay:
			a := NewYahooRelayAdapter(Relay{
				Name:    s.Name,
				Prefix:  s.Prefix,
				Encode:  s.Encode,
				Wrapped: s.Wrapped,
			}, proxyURL)
			if s.BaseURL != "" {
				a.BaseURL = s.BaseURL
			}
			adapters = append(adapters, a)
		case config.SourceBarAPI:
			adapters = append(adapters, NewBarAPIAdapter(s.Name, s.BaseURL, s.APIKey, proxyURL))
		case config.SourceAlpaca:
			adapters = append(adapters, NewAlpacaAdapter(s.APIKey, s.APISecret, s.BaseURL))
		case config.SourceFinanceGo:
			adapters = append(adapters, NewFinanceGoAdapter())
		default:
			return nil, fmt.Errorf("unknown source kind %q", s.Kind)
		}
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no enabled sources")
	}
	return adapters, nil
}
