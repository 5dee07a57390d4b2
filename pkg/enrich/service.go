package enrich

import (
	"context"
	"time"
)

// Result is one enriched client address. Absent sections mean the
// provider was not configured or the lookup failed.
type Result struct {
	IP        string    `json:"ip"`
	Geo       *GeoInfo  `json:"geo,omitempty"`
	ASN       *ASNInfo  `json:"asn,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type GeoInfo struct {
	Country string  `json:"country,omitempty"`
	City    string  `json:"city,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

type ASNInfo struct {
	ASN uint   `json:"asn,omitempty"`
	Org string `json:"org,omitempty"`
}

type Provider interface {
	Lookup(ctx context.Context, ip string) (any, error)
}

// Service runs the configured providers and caches results per IP so
// hot clients are looked up once per TTL window.
type Service struct {
	geo   Provider
	asn   Provider
	cache *resultCache
}

func NewService(geo Provider, asn Provider, ttl time.Duration) *Service {
	return &Service{
		geo:   geo,
		asn:   asn,
		cache: newResultCache(defaultCacheSize, ttl),
	}
}

// Lookup enriches one address. Provider failures degrade to absent
// sections rather than errors; the reporting path never breaks on a
// missing database entry.
func (s *Service) Lookup(ctx context.Context, ip string) (Result, error) {
	if cached, ok := s.cache.Get(ip); ok {
		return cached, nil
	}

	result := Result{IP: ip, Timestamp: time.Now()}
	if s.geo != nil {
		if geo, err := s.geo.Lookup(ctx, ip); err == nil {
			if v, ok := geo.(GeoInfo); ok {
				result.Geo = &v
			}
		}
	}
	if s.asn != nil {
		if asn, err := s.asn.Lookup(ctx, ip); err == nil {
			if v, ok := asn.(ASNInfo); ok {
				result.ASN = &v
			}
		}
	}

	s.cache.Set(ip, result)
	return result, nil
}

// CacheSize reports how many addresses are currently cached.
func (s *Service) CacheSize() int {
	return s.cache.Len()
}
