package tor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout is the timeout for checking if the SOCKS5 proxy is
// available. It bounds only the handshake, never a crawl request.
const checkProxyTimeout = 2 * time.Second

// Client dials through a SOCKS5 proxy, usually a Tor daemon.
// It satisfies golang.org/x/net/proxy.ContextDialer, so it can be handed
// to gopher.WithDialer.
type Client struct {
	// proxyAddress is the SOCKS5 proxy address in "host:port" format.
	proxyAddress string

	// auth holds optional username/password credentials.
	auth *proxy.Auth

	// dialer is the SOCKS5 dialer. We cache this to avoid recreating it
	// for each connection.
	dialer proxy.Dialer
}

// NewClient creates a Client for the given proxy.
//
// proxyAddress is either "host:port" or a URL of the form
// "socks5://[user:password@]host:port". Credentials are passed to the
// proxy with RFC 1929 username/password authentication; Tor uses them to
// isolate circuits.
//
// NewClient validates the address but does not contact the proxy. Call
// CheckConnection to verify it.
func NewClient(proxyAddress string) (*Client, error) {
	address, auth, err := parseProxyAddress(proxyAddress)
	if err != nil {
		return nil, err
	}

	dialer, err := proxy.SOCKS5("tcp", address, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Client{
		proxyAddress: address,
		auth:         auth,
		dialer:       dialer,
	}, nil
}

// parseProxyAddress splits a proxy specification into its address and
// optional credentials.
func parseProxyAddress(raw string) (string, *proxy.Auth, error) {
	var auth *proxy.Auth
	address := raw

	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		if u.Scheme != "socks5" && u.Scheme != "socks5h" {
			return "", nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxyAddress, u.Scheme)
		}
		if u.User != nil {
			password, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: password}
		}
		address = u.Host
	}

	if !isValidProxyAddress(address) {
		return "", nil, ErrInvalidProxyAddress
	}
	return address, auth, nil
}

// isValidProxyAddress checks if the address is in valid "host:port" format
// with a port between 1 and 65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}

	n, err := strconv.ParseUint(port, 10, 16)
	return err == nil && n >= 1
}

// SOCKS5 protocol constants
const (
	socks5Version       = 0x05
	socks5AuthNone      = 0x00
	socks5AuthPassword  = 0x02
	socks5AuthNoAccept  = 0xFF
	socks5CmdConnect    = 0x01
	socks5AddrTypeDomID = 0x03

	// socks5TestOnion is a synthetic .onion address used for SOCKS5
	// verification. The CONNECT is expected to fail; any well-formed reply
	// shows the proxy processes requests.
	socks5TestOnion = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.onion"
)

// CheckConnection verifies that the proxy is running and speaks SOCKS5.
//
// It performs the method negotiation (and username/password
// authentication when credentials are configured) and sends a CONNECT for
// a synthetic onion address. Any well-formed CONNECT reply counts as OK.
func (c *Client) CheckConnection(ctx context.Context) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	// Version negotiation: version + number of methods + methods.
	greeting := []byte{socks5Version, 0x01, socks5AuthNone}
	if c.auth != nil {
		greeting = []byte{socks5Version, 0x02, socks5AuthNone, socks5AuthPassword}
	}
	if _, err := conn.Write(greeting); err != nil {
		return ProxyStatusCannotConnect
	}

	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		return readFailure(err)
	}
	if authResp[0] != socks5Version {
		return ProxyStatusWrongType
	}

	switch authResp[1] {
	case socks5AuthNone:
	case socks5AuthPassword:
		if c.auth == nil {
			return ProxyStatusWrongType
		}
		if status := c.authenticate(conn); status != ProxyStatusOK {
			return status
		}
	default:
		return ProxyStatusWrongType
	}

	// CONNECT request: version + cmd + reserved + addr type + addr + port.
	testPort := uint16(70)
	connectReq := []byte{
		socks5Version,
		socks5CmdConnect,
		0x00,
		socks5AddrTypeDomID,
		byte(len(socks5TestOnion)),
	}
	connectReq = append(connectReq, []byte(socks5TestOnion)...)
	connectReq = append(connectReq, byte(testPort>>8), byte(testPort&0xFF))

	if _, err := conn.Write(connectReq); err != nil {
		return ProxyStatusCannotConnect
	}

	// Reply header: version + reply + reserved + addr type.
	connectResp := make([]byte, 4)
	if _, err := io.ReadFull(conn, connectResp); err != nil {
		return readFailure(err)
	}
	if connectResp[0] != socks5Version {
		return ProxyStatusWrongType
	}

	return ProxyStatusOK
}

// authenticate runs the RFC 1929 username/password subnegotiation.
func (c *Client) authenticate(conn net.Conn) ProxyStatus {
	req := []byte{0x01, byte(len(c.auth.User))}
	req = append(req, c.auth.User...)
	req = append(req, byte(len(c.auth.Password)))
	req = append(req, c.auth.Password...)
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return readFailure(err)
	}
	if resp[1] != 0x00 {
		return ProxyStatusAuthFailed
	}
	return ProxyStatusOK
}

// readFailure classifies an error while reading a proxy reply.
func readFailure(err error) ProxyStatus {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ProxyStatusTimeout
	}
	return ProxyStatusWrongType
}

// DialContext establishes a connection through the proxy.
// The address should be in "host:port" format; .onion hosts are resolved
// by the proxy.
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if cd, ok := c.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := c.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		go func() {
			if r := <-resultCh; r.conn != nil {
				_ = r.conn.Close() //nolint:errcheck // nobody is waiting for it
			}
		}()
		return nil, ctx.Err()
	}
}

// ProxyAddress returns the configured proxy address without credentials.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}
