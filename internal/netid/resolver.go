// Package netid はクライアント/サーバーのネットワーク識別情報
// （IPアドレス、MACアドレス）の解決を提供する。
package netid

import (
	"net"
	"net/http"
	"strings"

	"github.com/hitoshi/sessiond/internal/model"
)

// ZeroMacAddress は取得可能なインターフェースが無い場合のデフォルトMACアドレス。
const ZeroMacAddress = "00:00:00:00:00:00"

// Config はアドレスマスキングの設定を保持する。
type Config struct {
	// PlaceholderIP はループバックおよびマスク対象アドレスの置換先。
	PlaceholderIP string
	// MaskedPrefixes はプレースホルダに置換するアドレスの集合。
	// 末尾が "." の要素は前方一致、それ以外は完全一致で判定する。
	MaskedPrefixes []string
}

// Resolver はネットワーク識別情報を解決する。
type Resolver struct {
	config Config
}

// NewResolver はResolverを生成する。
func NewResolver(config Config) *Resolver {
	return &Resolver{config: config}
}

// ClientIP はリクエストからクライアントIPアドレスを解決する。
// X-Forwarded-Forヘッダーの先頭エントリを優先し、無ければRemoteAddrを使用する。
// ループバックアドレスはプレースホルダに置換し、IPv4-mapped IPv6表記
// （::ffff:）はIPv4部分のみに正規化する。
// どちらの情報源も無い場合はDIRECCION_FALTANTEエラーを返す。
func (r *Resolver) ClientIP(req *http.Request) (string, error) {
	ip := ""
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if ip == "" && req.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			// ポート無しのRemoteAddrはそのままアドレスとして扱う
			host = req.RemoteAddr
		}
		ip = host
	}
	if ip == "" {
		return "", model.NewMissingAddressError()
	}

	if ip == "::1" || ip == "127.0.0.1" {
		return r.config.PlaceholderIP, nil
	}
	if strings.HasPrefix(ip, "::ffff:") {
		return strings.TrimPrefix(ip, "::ffff:"), nil
	}
	return ip, nil
}

// ServerIdentity はサーバーの外向きIPアドレスとMACアドレスを解決する。
// ループバックでない起動中のインターフェースのうち、最初にIPv4アドレスを
// 持つものを選択する。マスク対象のアドレスはプレースホルダに置換する。
// 該当するインターフェースが無い場合はプレースホルダIPとゼロMACを返す。
func (r *Resolver) ServerIdentity() (ip string, mac string) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return r.config.PlaceholderIP, ZeroMacAddress
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil || ip4.IsLoopback() {
				continue
			}

			mac := iface.HardwareAddr.String()
			if mac == "" {
				mac = ZeroMacAddress
			}
			if r.masked(ip4.String()) {
				return r.config.PlaceholderIP, mac
			}
			return ip4.String(), mac
		}
	}
	return r.config.PlaceholderIP, ZeroMacAddress
}

// masked はアドレスがマスク対象集合に一致するかを判定する。
func (r *Resolver) masked(addr string) bool {
	for _, entry := range r.config.MaskedPrefixes {
		if strings.HasSuffix(entry, ".") {
			if strings.HasPrefix(addr, entry) {
				return true
			}
			continue
		}
		if addr == entry {
			return true
		}
	}
	return false
}
