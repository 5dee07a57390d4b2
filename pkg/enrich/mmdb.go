package enrich

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoIPMMDB resolves city records from a local MaxMind database.
type GeoIPMMDB struct {
	db *geoip2.Reader
}

// ASNMMDB resolves autonomous system records from a local MaxMind
// database.
type ASNMMDB struct {
	db *geoip2.Reader
}

func NewGeoIPMMDB(path string) (*GeoIPMMDB, error) {
	db, err := openMMDB(path)
	if err != nil {
		return nil, err
	}
	return &GeoIPMMDB{db: db}, nil
}

func NewASNMMDB(path string) (*ASNMMDB, error) {
	db, err := openMMDB(path)
	if err != nil {
		return nil, err
	}
	return &ASNMMDB{db: db}, nil
}

func openMMDB(path string) (*geoip2.Reader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mmdb %s: %w", path, err)
	}
	return db, nil
}

// Lookup returns an empty record for unparseable addresses rather than
// an error; private and malformed client IPs are common in the history.
func (g *GeoIPMMDB) Lookup(_ context.Context, ip string) (any, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return GeoInfo{}, nil
	}
	record, err := g.db.City(parsed)
	if err != nil {
		return GeoInfo{}, err
	}
	return GeoInfo{
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
		Lat:     record.Location.Latitude,
		Lon:     record.Location.Longitude,
	}, nil
}

func (a *ASNMMDB) Lookup(_ context.Context, ip string) (any, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ASNInfo{}, nil
	}
	record, err := a.db.ASN(parsed)
	if err != nil {
		return ASNInfo{}, err
	}
	return ASNInfo{
		ASN: record.AutonomousSystemNumber,
		Org: record.AutonomousSystemOrganization,
	}, nil
}

func (g *GeoIPMMDB) Close() error { return g.db.Close() }

func (a *ASNMMDB) Close() error { return a.db.Close() }
