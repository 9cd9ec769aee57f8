/*
Package atlas talks to the MongoDB Atlas Admin API.
*/
package atlas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mongodb-forks/digest"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

const (
	acceptHeader   = "application/vnd.atlas.2023-01-01+json"
	requestTimeout = 30 * time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
}

type ClientOption func(*Client)

/*
WithHTTPClient replaces the digest-authenticated HTTP client.
*/
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

/*
NewClient returns a client for the Admin API at baseURL, authenticating
with the programmatic API key pair over HTTP digest.
*/
func NewClient(baseURL, publicKey, privateKey string, opts ...ClientOption) (*Client, error) {
	transport := digest.NewTransport(publicKey, privateKey)
	httpClient, err := transport.Client()

	if err != nil {
		return nil, errors.Config("atlas client", err)
	}

	httpClient.Timeout = requestTimeout

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type providerSettings struct {
	InstanceSizeName string `json:"instanceSizeName"`
}

type scaleRequest struct {
	ProviderSettings providerSettings `json:"providerSettings"`
}

/*
Scale asks Atlas to move the cluster to tier. Atlas accepts the request
and scales asynchronously.
*/
func (c *Client) Scale(ctx context.Context, projectID, cluster, tier string) error {
	body, err := json.Marshal(scaleRequest{ProviderSettings: providerSettings{InstanceSizeName: tier}})

	if err != nil {
		return errors.Malformed("atlas scale", err)
	}

	endpoint := fmt.Sprintf(
		"%s/groups/%s/clusters/%s",
		c.baseURL, url.PathEscape(projectID), url.PathEscape(cluster),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))

	if err != nil {
		return errors.Config("atlas scale", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptHeader)

	log.Debug("requesting cluster scale", "project", projectID, "cluster", cluster, "tier", tier)

	resp, err := c.http.Do(req)

	if err != nil {
		return errors.Transient("atlas scale", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.FromStatus("atlas scale", resp.StatusCode, string(raw))
	}

	return nil
}
