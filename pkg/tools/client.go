/*
Package tools speaks the Model Context Protocol to a MongoDB tool server.
The client side is what the agent uses when AGENT_BACKEND=mcp, the server
side exposes the same database tools backed by the Go driver.
*/
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/theapemachine/atlas-demos/pkg/errors"
	"github.com/theapemachine/atlas-demos/pkg/metrics"
)

/*
Client wraps an MCP session: it initializes once, lists the available
tools, and calls them by name, returning the text parts of each result.
*/
type Client struct {
	conn  *client.Client
	url   string
	trace io.Writer
	dump  bool
	debug bool
	tools []mcp.Tool
	calls *metrics.Calls
}

type ClientOption func(*Client)

/*
WithTrace prints a one-line summary of every tool call and its result to
w. With dump set the raw result text is printed as well.
*/
func WithTrace(w io.Writer, dump bool) ClientOption {
	return func(c *Client) {
		c.trace = w
		c.dump = dump
	}
}

/*
WithDebug logs protocol notifications, which are otherwise dropped.
*/
func WithDebug(debug bool) ClientOption {
	return func(c *Client) {
		c.debug = debug
	}
}

/*
NewClient creates a streamable HTTP client for the MCP endpoint at url.
Nothing is sent until Connect is called.
*/
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	conn, err := client.NewStreamableHttpClient(url)

	if err != nil {
		return nil, errors.Config("mcp client", fmt.Sprintf("invalid MCP url %q", url), err)
	}

	return NewClientWith(conn, url, opts...), nil
}

/*
NewClientWith wraps an existing mcp-go client, for instance an in-process
one.
*/
func NewClientWith(conn *client.Client, url string, opts ...ClientOption) *Client {
	c := &Client{conn: conn, url: url, calls: metrics.NewCalls()}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) URL() string {
	return c.url
}

/*
Connect starts the transport, performs the initialize handshake and
fetches the tool list. It returns the number of tools the server offers.
*/
func (c *Client) Connect(ctx context.Context) (int, error) {
	c.conn.OnNotification(func(notification mcp.JSONRPCNotification) {
		if c.debug {
			log.Debug("mcp notification", "method", notification.Method)
		}
	})

	if err := c.conn.Start(ctx); err != nil {
		return 0, errors.Transient("mcp start", fmt.Sprintf("cannot reach %s", c.url), err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "atlas-demos",
		Version: "1.0.0",
	}
	initRequest.Params.Capabilities = mcp.ClientCapabilities{}

	serverInfo, err := c.conn.Initialize(ctx, initRequest)

	if err != nil {
		return 0, errors.Transient("mcp initialize", err)
	}

	log.Debug(
		"connected to mcp server",
		"serverName", serverInfo.ServerInfo.Name,
		"serverVersion", serverInfo.ServerInfo.Version,
	)

	listed, err := c.conn.ListTools(ctx, mcp.ListToolsRequest{})

	if err != nil {
		return 0, errors.Transient("mcp list tools", err)
	}

	c.tools = listed.Tools

	return len(c.tools), nil
}

func (c *Client) Tools() []mcp.Tool {
	return c.tools
}

/*
Metrics returns the latency and failure counts of the tool calls made so
far, per tool.
*/
func (c *Client) Metrics() []metrics.Summary {
	return c.calls.Snapshot()
}

/*
Call invokes the named tool and returns the text parts of its result.
A result flagged as an error is turned into a classified error.
*/
func (c *Client) Call(ctx context.Context, name string, args map[string]any) ([]string, error) {
	if c.trace != nil {
		fmt.Fprintf(c.trace, "[tool→] %s %s\n", name, describeCall(name, args))
	}

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	started := time.Now()
	result, err := c.conn.CallTool(ctx, request)

	if err != nil {
		c.calls.Record(name, true, time.Since(started))
		return nil, errors.Transient("mcp "+name, err)
	}

	c.calls.Record(name, result.IsError, time.Since(started))

	parts := textParts(result)
	text := strings.Join(parts, "\n")

	if c.trace != nil {
		fmt.Fprintf(
			c.trace, "[tool←] %s %dms result=%s\n",
			name, time.Since(started).Milliseconds(), shorten(text, 220),
		)

		if c.dump {
			fmt.Fprintf(c.trace, "[tool⇠ raw] %s\n", text)
		}
	}

	if result.IsError {
		return nil, classifyToolError(name, text)
	}

	return parts, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func textParts(result *mcp.CallToolResult) []string {
	parts := make([]string, 0, len(result.Content))

	for _, content := range result.Content {
		switch typed := content.(type) {
		case mcp.TextContent:
			parts = append(parts, typed.Text)
		case *mcp.TextContent:
			parts = append(parts, typed.Text)
		default:
			if raw, err := json.Marshal(typed); err == nil {
				parts = append(parts, string(raw))
			}
		}
	}

	return parts
}

func classifyToolError(name, text string) error {
	lower := strings.ToLower(text)
	op := "mcp " + name

	switch {
	case strings.Contains(lower, "authentication"), strings.Contains(lower, "unauthorized"):
		return errors.Auth(op, text)
	case strings.Contains(lower, "not found"), strings.Contains(lower, "does not exist"):
		return errors.NotReady(op, text)
	}

	return errors.New(errors.KindUnknown, op, text)
}
