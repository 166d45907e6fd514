// Package mode defines the privacy mode registry: a static, read-only table
// mapping mode names to the policy bundle every other component switches on.
// The table is the single source of truth for what each mode permits.
package mode

import "fmt"

// Name identifies a privacy mode.
type Name string

const (
	Lite     Name = "lite"
	Standard Name = "standard"
	Tor      Name = "tor"
)

// CookiePolicy controls what happens to Set-Cookie headers.
type CookiePolicy int

const (
	// CookieBlock strips every cookie.
	CookieBlock CookiePolicy = iota
	// CookieSessionOnly keeps cookies without a persistence attribute, in
	// memory only, for the lifetime of the browsing session.
	CookieSessionOnly
)

// HeaderProfile selects the outbound header set.
type HeaderProfile int

const (
	// HeaderMinimal sends the neutral identity plus Accept and Accept-Language.
	HeaderMinimal HeaderProfile = iota
	// HeaderStandard adds a small compatibility set on top of minimal.
	HeaderStandard
	// HeaderAggressive sends only the neutral identity and Accept.
	HeaderAggressive
)

// Transport selects the network path.
type Transport int

const (
	TransportDirect Transport = iota
	TransportTor
)

// Policy is the immutable bundle of permissions for one mode. It is resolved
// once at request entry and carried by value through the whole pipeline.
type Policy struct {
	Name           Name
	ScriptsAllowed bool
	Cookies        CookiePolicy
	ImagesAllowed  bool
	Headers        HeaderProfile
	Transport      Transport
}

// ErrUnknownMode is returned by Resolve for names outside the registry.
var ErrUnknownMode = fmt.Errorf("unknown privacy mode")

// registry is the authoritative mode table. Read-only after init; safe to
// share across concurrent requests.
var registry = map[Name]Policy{
	Lite: {
		Name:           Lite,
		ScriptsAllowed: false,
		Cookies:        CookieBlock,
		ImagesAllowed:  false,
		Headers:        HeaderMinimal,
		Transport:      TransportDirect,
	},
	Standard: {
		Name:           Standard,
		ScriptsAllowed: true,
		Cookies:        CookieSessionOnly,
		ImagesAllowed:  true,
		Headers:        HeaderStandard,
		Transport:      TransportDirect,
	},
	Tor: {
		Name:           Tor,
		ScriptsAllowed: false,
		Cookies:        CookieBlock,
		ImagesAllowed:  false,
		Headers:        HeaderAggressive,
		Transport:      TransportTor,
	},
}

// Resolve looks up the policy for a mode name. Pure lookup: same input,
// bit-identical output.
func Resolve(name string) (Policy, error) {
	p, ok := registry[Name(name)]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	return p, nil
}

// Names returns all registered mode names in a fixed order.
func Names() []Name {
	return []Name{Lite, Standard, Tor}
}

func (c CookiePolicy) String() string {
	switch c {
	case CookieSessionOnly:
		return "session_only"
	default:
		return "block"
	}
}

func (h HeaderProfile) String() string {
	switch h {
	case HeaderStandard:
		return "standard"
	case HeaderAggressive:
		return "aggressive"
	default:
		return "minimal"
	}
}

func (t Transport) String() string {
	if t == TransportTor {
		return "tor"
	}
	return "direct"
}
