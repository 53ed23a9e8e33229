package netid

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/sessiond/internal/model"
)

func testResolver() *Resolver {
	return NewResolver(Config{
		PlaceholderIP:  "127.16.0.51",
		MaskedPrefixes: []string{"172.", "192.168.0.1"},
	})
}

func TestResolver_ClientIP(t *testing.T) {
	cases := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{
			name:      "IPv6ループバックはプレースホルダに置換",
			forwarded: "::1",
			want:      "127.16.0.51",
		},
		{
			name:      "IPv4ループバックはプレースホルダに置換",
			forwarded: "127.0.0.1",
			want:      "127.16.0.51",
		},
		{
			name:      "IPv4-mapped表記はIPv4部分のみに正規化",
			forwarded: "::ffff:203.0.113.5",
			want:      "203.0.113.5",
		},
		{
			name:      "X-Forwarded-Forは先頭エントリを採用",
			forwarded: "203.0.113.5, 70.41.3.18, 150.172.238.178",
			want:      "203.0.113.5",
		},
		{
			name:       "ヘッダー無しはRemoteAddrのホスト部を採用",
			remoteAddr: "198.51.100.7:52712",
			want:       "198.51.100.7",
		},
		{
			name:       "ポート無しのRemoteAddrはそのまま採用",
			remoteAddr: "198.51.100.7",
			want:       "198.51.100.7",
		},
	}

	r := testResolver()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			got, err := r.ClientIP(req)
			if err != nil {
				t.Fatalf("ClientIP() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("ClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolver_ClientIP_MissingAddress(t *testing.T) {
	r := testResolver()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ""

	_, err := r.ClientIP(req)
	if err == nil {
		t.Fatal("ClientIP() error = nil, want missing address error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMissingAddress {
		t.Errorf("ClientIP() error = %v, want code %s", err, model.ErrCodeMissingAddress)
	}
}

func TestResolver_Masked(t *testing.T) {
	r := testResolver()

	cases := []struct {
		addr string
		want bool
	}{
		{"172.17.0.2", true},     // 前方一致
		{"192.168.0.1", true},    // 完全一致
		{"192.168.0.10", false},  // 完全一致エントリは部分一致しない
		{"10.0.0.4", false},
		{"203.0.113.5", false},
	}
	for _, tc := range cases {
		if got := r.masked(tc.addr); got != tc.want {
			t.Errorf("masked(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestResolver_ServerIdentity_NeverEmpty(t *testing.T) {
	r := testResolver()

	ip, mac := r.ServerIdentity()
	if ip == "" {
		t.Error("ServerIdentity() ip is empty")
	}
	if mac == "" {
		t.Error("ServerIdentity() mac is empty")
	}
}
