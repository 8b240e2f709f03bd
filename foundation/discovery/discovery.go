// Package discovery advertises and locates ledger nodes on the local
// network over mDNS.
package discovery

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceName is the mDNS service type ledger nodes advertise under.
const ServiceName = "_meritledger._tcp"

// Endpoint describes one discovered ledger node.
type Endpoint struct {
	Host string
	Port int
	Info string
}

// Server wraps the advertisement so it can be shut down with the node.
type Server struct {
	srv *mdns.Server
}

// Advertise announces this node on the local network. The returned server
// must be shut down when the node stops.
func Advertise(instance string, port int, info string) (*Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, err
	}

	service, err := mdns.NewMDNSService(instance, ServiceName, "", "", port, nil, []string{info})
	if err != nil {
		return nil, fmt.Errorf("constructing mdns service for host %s: %w", host, err)
	}

	srv, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, err
	}

	return &Server{srv: srv}, nil
}

// Shutdown stops the advertisement.
func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

// Lookup browses the local network for ledger nodes until the timeout
// expires or the context is canceled.
func Lookup(ctx context.Context, timeout time.Duration) ([]Endpoint, error) {
	entries := make(chan *mdns.ServiceEntry, 8)

	var endpoints []Endpoint
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			ep := Endpoint{
				Host: entry.AddrV4.String(),
				Port: entry.Port,
			}
			if len(entry.InfoFields) > 0 {
				ep.Info = entry.InfoFields[0]
			}
			endpoints = append(endpoints, ep)
		}
	}()

	params := mdns.DefaultParams(ServiceName)
	params.Entries = entries
	params.Timeout = timeout

	err := mdns.Query(params)
	close(entries)
	<-done

	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return endpoints, ctx.Err()
	default:
	}

	return endpoints, nil
}
