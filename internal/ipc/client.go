package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"github.com/google/uuid"
)

// DialTimeout bounds how long Dial waits for the daemon socket.
const DialTimeout = 2 * time.Second

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, DialTimeout)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func newMeta() RequestMeta {
	return RequestMeta{RequestID: uuid.NewString()}
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Query ranks applications against search. A limit <= 0 means no limit.
func (c *Client) Query(search string, limit int) (*QueryResponse, error) {
	var resp QueryResponse
	req := QueryRequest{RequestMeta: newMeta(), Search: search, Limit: limit}
	if err := c.call("Query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Launch starts the application with id.
func (c *Client) Launch(id string) (*LaunchResponse, error) {
	var resp LaunchResponse
	req := LaunchRequest{RequestMeta: newMeta(), ID: id}
	if err := c.call("Launch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rescan asks the daemon to rescan the application directories.
func (c *Client) Rescan() (*RescanResponse, error) {
	var resp RescanResponse
	if err := c.call("Rescan", RescanRequest{RequestMeta: newMeta()}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{RequestMeta: newMeta()}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns recent launches.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	req := HistoryRequest{RequestMeta: newMeta(), Limit: limit}
	if err := c.call("History", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon process to exit.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{RequestMeta: newMeta()}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
