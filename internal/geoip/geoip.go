// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves a visitor's IP address to an approximate location
// using a MaxMind GeoLite2-City database. The soil lab uses it when the
// browser does not share the sample location.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"

	"github.com/olegiv/agrisite/internal/model"
)

// cityRecord is the part of a GeoLite2-City record the site uses.
type cityRecord struct {
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Subdivisions []struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// Lookup answers location queries from an mmdb file. A Lookup without a
// database resolves nothing.
type Lookup struct {
	mu      sync.RWMutex
	db      *maxminddb.Reader
	path    string
	modTime time.Time
}

// NewLookup creates a lookup with no database loaded.
func NewLookup() *Lookup {
	return &Lookup{}
}

// Init opens the database at path. An empty path disables lookups.
func (g *Lookup) Init(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.path = path
	if path == "" {
		return nil
	}
	return g.open()
}

// Reload reopens the database when the file changed on disk.
func (g *Lookup) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.path == "" {
		return nil
	}
	return g.open()
}

// open loads g.path unless the loaded copy is current. The caller holds
// the write lock. On failure the previous database stays in use.
func (g *Lookup) open() error {
	info, err := os.Stat(g.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("GeoIP database not found: %s", g.path)
		}
		return fmt.Errorf("GeoIP database stat error: %w", err)
	}
	if g.db != nil && info.ModTime().Equal(g.modTime) {
		return nil
	}

	db, err := maxminddb.Open(g.path)
	if err != nil {
		return fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	if g.db != nil {
		_ = g.db.Close()
	}
	g.db, g.modTime = db, info.ModTime()
	return nil
}

// Enabled reports whether a database is loaded.
func (g *Lookup) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// LookupLocation returns the approximate location of ip. Private, loopback
// and unparseable addresses never resolve.
func (g *Lookup) LookupLocation(ip string) (*model.Location, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil || !isPublic(addr) {
		return nil, false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return nil, false
	}

	var rec cityRecord
	if err := g.db.Lookup(net.IP(addr.Unmap().AsSlice()), &rec); err != nil {
		return nil, false
	}
	return locationFromRecord(rec)
}

// Close releases the database.
func (g *Lookup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsGlobalUnicast() && !addr.IsPrivate()
}

// locationFromRecord builds a "City, State, Country" label. A record
// without coordinates does not count as a location.
func locationFromRecord(rec cityRecord) (*model.Location, bool) {
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return nil, false
	}

	var parts []string
	if city := rec.City.Names["en"]; city != "" {
		parts = append(parts, city)
	}
	if len(rec.Subdivisions) > 0 {
		if state := rec.Subdivisions[0].Names["en"]; state != "" {
			parts = append(parts, state)
		}
	}
	country := rec.Country.Names["en"]
	if country == "" {
		country = rec.Country.ISOCode
	}
	if country != "" {
		parts = append(parts, country)
	}

	return &model.Location{
		Lat:   rec.Location.Latitude,
		Lng:   rec.Location.Longitude,
		Label: strings.Join(parts, ", "),
	}, true
}
