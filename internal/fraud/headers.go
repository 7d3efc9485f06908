package fraud

import (
	"net"
	"net/http"
	"strings"
)

// Header names of the fraud-prevention set.
const (
	HeaderDeviceID     = "Gov-Client-Device-ID"
	HeaderPublicIP     = "Gov-Client-Public-IP"
	HeaderLocalIPs     = "Gov-Client-Local-IPs"
	HeaderTimezone     = "Gov-Client-Timezone"
	HeaderUserIDs      = "Gov-Client-User-IDs"
	HeaderVendor       = "Gov-Vendor-Version"
	HeaderClientAgent  = "Gov-Client-User-Agent"
	AcceptHMRCJSONv1   = "application/vnd.hmrc.1.0+json"
	defaultVendorName  = "vatfiler"
	defaultVendorBuild = "dev"
)

// Config holds the values that cannot be derived from the request.
type Config struct {
	// VendorName and VendorVersion form the User-Agent product string and
	// the Gov-Vendor-Version value.
	VendorName    string
	VendorVersion string

	// DefaultPublicIP is used when the client address cannot be parsed.
	DefaultPublicIP string
	LocalIPs        string
	Timezone        string
	UserIDs         string
}

// Builder produces the fraud-prevention headers for a request.
type Builder struct {
	deviceID string
	cfg      Config
}

// NewBuilder creates a Builder. Empty vendor fields fall back to
// "vatfiler" and "dev".
func NewBuilder(deviceID string, cfg Config) *Builder {
	if cfg.VendorName == "" {
		cfg.VendorName = defaultVendorName
	}
	if cfg.VendorVersion == "" {
		cfg.VendorVersion = defaultVendorBuild
	}
	return &Builder{deviceID: deviceID, cfg: cfg}
}

// DeviceID returns the identifier sent in Gov-Client-Device-ID.
func (b *Builder) DeviceID() string {
	return b.deviceID
}

// ProductString returns "<vendor>/<version>".
func (b *Builder) ProductString() string {
	return b.cfg.VendorName + "/" + b.cfg.VendorVersion
}

// Headers returns the header set for a call made on behalf of r. It never
// fails; a nil request yields the defaults.
func (b *Builder) Headers(r *http.Request) http.Header {
	product := b.ProductString()

	clientAgent := ""
	if r != nil {
		clientAgent = r.UserAgent()
	}
	if clientAgent == "" {
		clientAgent = product
	}

	h := make(http.Header)
	h.Set("Accept", AcceptHMRCJSONv1)
	h.Set("User-Agent", product)
	h.Set(HeaderDeviceID, b.deviceID)
	h.Set(HeaderPublicIP, b.publicIP(r))
	h.Set(HeaderLocalIPs, b.cfg.LocalIPs)
	h.Set(HeaderTimezone, b.cfg.Timezone)
	h.Set(HeaderUserIDs, b.cfg.UserIDs)
	h.Set(HeaderVendor, b.cfg.VendorName+"="+b.cfg.VendorVersion)
	h.Set(HeaderClientAgent, clientAgent)
	return h
}

// publicIP is the host part of the request's remote address, or the
// configured default when there is none.
func (b *Builder) publicIP(r *http.Request) string {
	if r == nil || r.RemoteAddr == "" {
		return b.cfg.DefaultPublicIP
	}

	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	if net.ParseIP(host) == nil {
		return b.cfg.DefaultPublicIP
	}
	return host
}
