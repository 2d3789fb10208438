package web

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/ramborogers/netswitch/logging"
)

// ServiceType is the DNS-SD service the panel advertises.
const ServiceType = "_netswitch._tcp"

// Advertiser announces a running panel on the local network.
type Advertiser struct {
	server *mdns.Server
}

// Advertise publishes the panel as instance on port. The token is never
// advertised; only the version goes into the TXT record.
func Advertise(instance string, port int, version string) (*Advertiser, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "netswitch"
		}
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil,
		[]string{"version=" + version})
	if err != nil {
		return nil, fmt.Errorf("building mdns service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("starting mdns responder: %w", err)
	}
	logging.WithComponent("web").Info("advertising panel", "instance", instance, "service", ServiceType, "port", port)
	return &Advertiser{server: server}, nil
}

// Close stops answering queries.
func (a *Advertiser) Close() error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown()
}

// Panel is a panel found on the network.
type Panel struct {
	Instance string
	Host     string
	Addr     net.IP
	Port     int
	Version  string
}

// URL returns the panel address without the auth token.
func (p Panel) URL() string {
	return "http://" + net.JoinHostPort(p.Addr.String(), fmt.Sprint(p.Port)) + "/"
}

// Discover browses for panels for the given time.
func Discover(timeout time.Duration) ([]Panel, error) {
	log := logging.WithComponent("web")

	entriesCh := make(chan *mdns.ServiceEntry, 16)
	var (
		mu     sync.Mutex
		panels = make(map[string]Panel)
		done   = make(chan struct{})
	)

	go func() {
		defer close(done)
		for entry := range entriesCh {
			if entry == nil || entry.AddrV4 == nil {
				continue
			}
			p := Panel{
				Instance: instanceName(entry.Name),
				Host:     strings.TrimSuffix(entry.Host, "."),
				Addr:     entry.AddrV4,
				Port:     entry.Port,
			}
			for _, field := range entry.InfoFields {
				if v, ok := strings.CutPrefix(field, "version="); ok {
					p.Version = v
				}
			}
			mu.Lock()
			panels[p.URL()] = p
			mu.Unlock()
		}
	}()

	params := &mdns.QueryParam{
		Service:             ServiceType,
		Domain:              "local",
		Timeout:             timeout,
		Entries:             entriesCh,
		WantUnicastResponse: true,
		DisableIPv6:         true,
	}
	err := mdns.Query(params)
	close(entriesCh)
	<-done
	if err != nil {
		log.Debug("mdns browse failed", "error", err)
		return nil, fmt.Errorf("mdns browse: %w", err)
	}

	out := make([]Panel, 0, len(panels))
	for _, p := range panels {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Instance < out[j].Instance
	})
	return out, nil
}

// instanceName extracts "office-pc" from "office-pc._netswitch._tcp.local.".
func instanceName(name string) string {
	if idx := strings.Index(name, "._"); idx > 0 {
		name = name[:idx]
	}
	name = strings.TrimSuffix(name, ".local")
	return strings.ReplaceAll(name, "\\", "")
}
