package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// GeoIPHTTP asks an external geolocation service instead of a local
// database. The configured URL may contain a {ip} placeholder. Both
// numeric lat/lon fields and the ipinfo-style "lat,lon" loc string are
// understood, so either public service works without extra config.
type GeoIPHTTP struct {
	url   string
	token string
	http  *http.Client
}

func NewGeoIPHTTP(url string, token string, timeout time.Duration) *GeoIPHTTP {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &GeoIPHTTP{
		url:   url,
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

func (g *GeoIPHTTP) Lookup(ctx context.Context, ip string) (any, error) {
	if g.url == "" {
		return GeoInfo{}, nil
	}
	url := strings.ReplaceAll(g.url, "{ip}", ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GeoInfo{}, err
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return GeoInfo{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GeoInfo{}, fmt.Errorf("geoip lookup status %d", resp.StatusCode)
	}
	var payload struct {
		Country string  `json:"country"`
		City    string  `json:"city"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Loc     string  `json:"loc"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return GeoInfo{}, err
	}
	info := GeoInfo{
		Country: payload.Country,
		City:    payload.City,
		Lat:     payload.Lat,
		Lon:     payload.Lon,
	}
	if info.Lat == 0 && info.Lon == 0 && payload.Loc != "" {
		info.Lat, info.Lon = parseLoc(payload.Loc)
	}
	return info, nil
}

// parseLoc splits the "lat,lon" coordinate string used by ipinfo-style
// services. Unparseable coordinates degrade to the zero location.
func parseLoc(loc string) (float64, float64) {
	parts := strings.SplitN(loc, ",", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lonErr != nil {
		return 0, 0
	}
	return lat, lon
}
