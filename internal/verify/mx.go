package verify

import (
	"context"
	"time"

	"github.com/miekg/dns"
	"github.com/rotisserie/eris"
)

// MXChecker asks a DNS resolver whether a domain accepts mail
type MXChecker struct {
	client *dns.Client
	server string
}

// NewMXChecker creates a checker against server ("host:port")
func NewMXChecker(server string, timeout time.Duration) *MXChecker {
	if server == "" {
		server = "8.8.8.8:53"
	}
	return &MXChecker{
		client: &dns.Client{Timeout: timeout},
		server: server,
	}
}

// HasMX reports whether domain has at least one MX record. A definite
// NXDOMAIN is (false, nil); transport failures are returned as errors.
func (m *MXChecker) HasMX(ctx context.Context, domain string) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	resp, _, err := m.client.ExchangeContext(ctx, msg, m.server)
	if err != nil {
		return false, eris.Wrapf(err, "verify: MX lookup %s", domain)
	}

	switch resp.Rcode {
	case dns.RcodeNameError:
		return false, nil
	case dns.RcodeSuccess:
	default:
		return false, eris.Errorf("verify: MX lookup %s: rcode %s", domain, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		if _, ok := rr.(*dns.MX); ok {
			return true, nil
		}
	}
	return false, nil
}
