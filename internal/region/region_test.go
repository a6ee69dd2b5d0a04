package region

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    domain.Region
	}{
		{"no headers", nil, domain.RegionUS},
		{"cdn china", map[string]string{"CF-IPCountry": "CN"}, domain.RegionCN},
		{"cdn elsewhere", map[string]string{"CF-IPCountry": "DE"}, domain.RegionUS},
		{"override china", map[string]string{"X-Country": "CN"}, domain.RegionCN},
		{"cdn wins over override", map[string]string{"CF-IPCountry": "CN", "X-Country": "US"}, domain.RegionCN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, Detect(req))
		})
	}
}
