// Package region maps request metadata to a billing region. Detection runs
// once at user creation; the stored region is never re-derived.
package region

import (
	"net/http"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

// Detect checks the CDN country header first, then the explicit override
// header, and defaults everything outside China to US pricing.
func Detect(r *http.Request) domain.Region {
	if r.Header.Get("CF-IPCountry") == "CN" {
		return domain.RegionCN
	}
	if r.Header.Get("X-Country") == "CN" {
		return domain.RegionCN
	}
	return domain.RegionUS
}
