package usecase

import (
	"fmt"
	"strings"

	"github.com/allisson/appointments/internal/appointment/domain"
)

// Region binds a supported country to its dispatch channel.
type Region struct {
	Code     domain.CountryCode
	Dispatch DispatchPublisher
}

// RegionRegistry maps supported countries to their region handles. It is built
// once at startup and read-only afterwards.
type RegionRegistry struct {
	regions map[domain.CountryCode]Region
	codes   []domain.CountryCode
}

// NewRegionRegistry builds a registry, rejecting empty and duplicate country codes.
func NewRegionRegistry(regions ...Region) (*RegionRegistry, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("at least one region is required")
	}

	registry := &RegionRegistry{
		regions: make(map[domain.CountryCode]Region, len(regions)),
		codes:   make([]domain.CountryCode, 0, len(regions)),
	}
	for _, region := range regions {
		if region.Code == "" {
			return nil, fmt.Errorf("region with empty country code")
		}
		if _, exists := registry.regions[region.Code]; exists {
			return nil, fmt.Errorf("duplicate region %s", region.Code)
		}
		registry.regions[region.Code] = region
		registry.codes = append(registry.codes, region.Code)
	}
	return registry, nil
}

// Lookup returns the region for a country.
func (r *RegionRegistry) Lookup(code domain.CountryCode) (Region, bool) {
	region, ok := r.regions[code]
	return region, ok
}

// Supports reports whether the country has a configured region.
func (r *RegionRegistry) Supports(code domain.CountryCode) bool {
	_, ok := r.regions[code]
	return ok
}

// Codes returns the supported countries in configuration order.
func (r *RegionRegistry) Codes() []domain.CountryCode {
	codes := make([]domain.CountryCode, len(r.codes))
	copy(codes, r.codes)
	return codes
}

// String renders the supported set, e.g. "PE, CL".
func (r *RegionRegistry) String() string {
	parts := make([]string, len(r.codes))
	for i, code := range r.codes {
		parts[i] = code.String()
	}
	return strings.Join(parts, ", ")
}
