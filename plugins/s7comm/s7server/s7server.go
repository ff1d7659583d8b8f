/*
Package s7server defines the callback/registration contract an S7 protocol
server library would satisfy. spec.md §1 explicitly delegates the
wire-level Siemens S7 protocol parser to an external library, addressed
here only by its contract; this package is that contract plus a minimal
in-process stand-in sufficient to exercise the s7comm plugin's
double-buffered synchronisation policy (spec.md §4.5, Policy B) without
implementing TPKT/COTP/S7 framing.
*/
package s7server

// Config is the subset of server parameters a real S7 library would need
// to bind and serve clients.
type Config struct {
	BindAddress string
	Port        uint16
	MaxClients  int
	SendTimeoutMS, RecvTimeoutMS, PingTimeoutMS int
	PDUSize     int
	Identity    Identity
}

// Identity carries the SZL-response identity strings a real S7 stack would
// report to a client's "identify" request.
type Identity struct {
	Name, ModuleType, SerialNumber, Copyright, ModuleName string
}

// Region is one registered memory-mapped region: a data block or a system
// area (PE/PA/MK), keyed by the real library's own addressing scheme.
type Region struct {
	Name string
	Buf  []byte
}

// Server is the minimal surface the s7comm plugin needs from an S7 server
// library: register facing buffers and report connected-client count. It
// has no network listener to start or stop. A real implementation would also parse
// TPKT/COTP/S7 framing and dispatch client reads/writes into these
// buffers; this stand-in only tracks registrations and a client count so
// Policy B's cycle_end sync has something concrete to operate on.
type Server struct {
	cfg     Config
	regions map[string]*Region
	clients int
}

// New constructs a Server bound to cfg. It does not open a socket: binding
// is the responsibility of a real library's Listen/Serve, out of scope
// here (spec.md §1).
func New(cfg Config) *Server {
	return &Server{cfg: cfg, regions: make(map[string]*Region)}
}

// RegisterRegion registers a named buffer region (e.g. "DB1", "PE") that
// the server will expose to clients. size is in bytes.
func (s *Server) RegisterRegion(name string, size int) *Region {
	r := &Region{Name: name, Buf: make([]byte, size)}
	s.regions[name] = r
	return r
}

// Region returns the previously registered region by name, or nil.
func (s *Server) Region(name string) *Region {
	return s.regions[name]
}

// ConnectedClients reports the number of currently connected clients. A
// real library tracks this from its accept loop; the stand-in exposes it
// via SetConnectedClients for tests and for the exemplar's own bookkeeping.
func (s *Server) ConnectedClients() int {
	return s.clients
}

// SetConnectedClients is a test/diagnostic hook standing in for the real
// library's connection tracking.
func (s *Server) SetConnectedClients(n int) {
	s.clients = n
}

// Config returns the server's configuration.
func (s *Server) Config() Config {
	return s.cfg
}
