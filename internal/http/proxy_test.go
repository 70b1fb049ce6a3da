package http

import (
	"net/http"
	"net/url"
	"testing"

	ntlmssp "github.com/Azure/go-ntlmssp"

	"github.com/rescale/drive-explorer/internal/config"
)

func TestProxyFuncWithBypass(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")

	tests := []struct {
		name       string
		noProxy    string
		target     string
		wantBypass bool
	}{
		{"empty bypass list proxies everything", "", "https://graph.microsoft.com/v1.0/drives", false},
		{"wildcard domain", "*.sharepoint.com", "https://contoso.sharepoint.com/download.aspx", true},
		{"bare domain matches subdomains", "microsoftonline.com", "https://login.microsoftonline.com/t/oauth2", true},
		{"cidr range", "10.0.0.0/8", "http://10.1.2.3:8080/api", true},
		{"non-matching host", "*.internal.corp,10.0.0.0/8", "https://graph.microsoft.com/v1.0/", false},
		{"multiple patterns", "*.example.com, 192.168.0.0/16", "http://192.168.1.100/api", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxyFunc := proxyFuncWithBypass(proxyURL, tt.noProxy)
			req, _ := http.NewRequest("GET", tt.target, nil)
			result, err := proxyFunc(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantBypass && result != nil {
				t.Errorf("expected bypass (nil) for %s, got %v", tt.target, result)
			}
			if !tt.wantBypass {
				if result == nil {
					t.Fatalf("expected proxy for %s, got nil (bypass)", tt.target)
				}
				if result.Host != "proxy.corp:8080" {
					t.Errorf("proxy host = %s, want proxy.corp:8080", result.Host)
				}
			}
		})
	}
}

func TestConfigureHTTPClientModes(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantErr  bool
		wantNTLM bool
	}{
		{name: "no proxy", cfg: config.Config{ProxyMode: "no-proxy"}},
		{name: "system", cfg: config.Config{ProxyMode: "system"}},
		{name: "basic without host falls back", cfg: config.Config{ProxyMode: "basic"}},
		{name: "ntlm wraps transport", cfg: config.Config{ProxyMode: "ntlm", ProxyHost: "proxy.corp"}, wantNTLM: true},
		{name: "unknown mode", cfg: config.Config{ProxyMode: "socks"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := ConfigureHTTPClient(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ConfigureHTTPClient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			_, isNTLM := client.Transport.(ntlmssp.Negotiator)
			if isNTLM != tt.wantNTLM {
				t.Errorf("NTLM negotiator = %v, want %v", isNTLM, tt.wantNTLM)
			}
		})
	}
}

func TestNeedsProxyPassword(t *testing.T) {
	tests := []struct {
		cfg  config.Config
		want bool
	}{
		{config.Config{ProxyMode: "basic", ProxyUser: "bob"}, true},
		{config.Config{ProxyMode: "ntlm", ProxyUser: "bob", ProxyPassword: "x"}, false},
		{config.Config{ProxyMode: "system", ProxyUser: "bob"}, false},
		{config.Config{ProxyMode: "basic"}, false},
	}
	for _, tt := range tests {
		if got := NeedsProxyPassword(&tt.cfg); got != tt.want {
			t.Errorf("NeedsProxyPassword(%+v) = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}
