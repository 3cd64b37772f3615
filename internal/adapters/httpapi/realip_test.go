package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	t.Parallel()
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("fd00::/8")}

	cases := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{name: "untrusted peer keeps socket address", remote: "203.0.113.4:5000", xff: "198.51.100.1", xri: "198.51.100.2", want: "203.0.113.4:5000"},
		{name: "trusted peer uses rightmost untrusted hop", remote: "10.0.0.2:5000", xff: "1.1.1.1, 198.51.100.1, 10.0.0.9", want: "198.51.100.1"},
		{name: "trusted peer falls back to X-Real-IP", remote: "10.0.0.2:5000", xri: "198.51.100.2", want: "198.51.100.2"},
		{name: "garbage hop stops the walk", remote: "10.0.0.2:5000", xff: "198.51.100.1, not-an-ip", want: "10.0.0.2:5000"},
		{name: "only trusted hops keep socket address", remote: "10.0.0.2:5000", xff: "10.0.0.3", want: "10.0.0.2:5000"},
		{name: "ipv6 proxy", remote: "[fd00::1]:443", xff: "2001:db8::7", want: "2001:db8::7"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var got string
			h := trustedRealIP(trusted)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				req.Header.Set("X-Real-IP", tc.xri)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tc.want {
				t.Fatalf("RemoteAddr=%q want %q", got, tc.want)
			}
		})
	}
}
