package verify

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDNS serves MX answers for joesbakery.com, NXDOMAIN for ghost.invalid
// and an empty answer for everything else.
func startDNS(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(r)
			q := r.Question[0]
			switch q.Name {
			case "joesbakery.com.":
				m.Answer = append(m.Answer, &dns.MX{
					Hdr:        dns.RR_Header{Name: q.Name, Rrtype: dns.TypeMX, Class: dns.ClassINET, Ttl: 300},
					Preference: 10,
					Mx:         "mail.joesbakery.com.",
				})
			case "ghost.invalid.":
				m.SetRcode(r, dns.RcodeNameError)
			}
			_ = w.WriteMsg(m)
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String()
}

func TestMXChecker_HasMX(t *testing.T) {
	mx := NewMXChecker(startDNS(t), 2*time.Second)
	ctx := context.Background()

	ok, err := mx.HasMX(ctx, "joesbakery.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mx.HasMX(ctx, "ghost.invalid")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = mx.HasMX(ctx, "nomail.com")
	require.NoError(t, err)
	assert.False(t, ok)
}
