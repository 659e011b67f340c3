package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Every Aptos object carries a 0x1::object::ObjectCore resource at its
// own address, and its owner field tracks transfers. Reading it is the
// direct ownership lookup, as opposed to introspecting the claimed
// owner's account.
const objectCoreResource = "0x1::object::ObjectCore"

// AptosClient reads ownership from an Aptos fullnode's REST API.
type AptosClient struct {
	nodeURL string
	client  *http.Client
}

func NewAptosClient(nodeURL string, timeout time.Duration) *AptosClient {
	return &AptosClient{
		nodeURL: strings.TrimRight(nodeURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *AptosClient) OwnerOf(ctx context.Context, objectAddress string) (string, error) {
	url := fmt.Sprintf("%s/v1/accounts/%s/resource/%s", c.nodeURL, objectAddress, objectCoreResource)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrObjectNotFound
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: node returned %s", ErrUnavailable, resp.Status)
	}

	var resource struct {
		Data struct {
			Owner string `json:"owner"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&resource); err != nil {
		return "", fmt.Errorf("%w: decoding resource: %v", ErrUnavailable, err)
	}
	if resource.Data.Owner == "" {
		return "", fmt.Errorf("%w: resource has no owner field", ErrUnavailable)
	}
	return resource.Data.Owner, nil
}
