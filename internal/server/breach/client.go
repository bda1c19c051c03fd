package breach

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
)

// DefaultBaseURL is the public Pwned Passwords range endpoint.
const DefaultBaseURL = "https://api.pwnedpasswords.com/range/"

const userAgent = "vaultwatch-breach-check"

// Client queries the range API over HTTP. It never retries; callers own
// retry policy.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewClient returns a client bounded by timeout per lookup.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

// Check looks the secret up. Any failure to reach a conclusion, including
// the timeout, yields StatusUnknown rather than a zero count.
func (c *Client) Check(ctx context.Context, secret string) Result {
	prefix, suffix := RangeQuery(secret)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+prefix, nil)
	if err != nil {
		return Unknown(fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Add-Padding", "true")

	resp, err := c.http.Do(req)
	if err != nil {
		return Unknown(fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unknown(fmt.Errorf("%w: status %s", common.ErrOracleUnavailable, resp.Status))
	}

	return scanRange(bufio.NewScanner(resp.Body), suffix)
}

// scanRange finds suffix among SUFFIX:COUNT lines. Padding rows carry a
// zero count and read as clean.
func scanRange(sc *bufio.Scanner, suffix string) Result {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		hashSuffix, countStr, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(hashSuffix, suffix) {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(countStr), 10, 64)
		if err != nil || n < 0 {
			return Unknown(fmt.Errorf("%w: malformed count %q", common.ErrOracleUnavailable, countStr))
		}
		if n == 0 {
			return Clean()
		}
		return Exposed(n)
	}
	if err := sc.Err(); err != nil {
		return Unknown(fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err))
	}
	return Clean()
}
