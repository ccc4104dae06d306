// Package ownership talks to the external ownership/authorization service
// that decides whether a person may author messages as an organization. The
// engine treats the answer as a pure boolean gate.
package ownership

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/mbeoliero/kit/log"
)

// Authorizer answers whether a subject may act as an organization
type Authorizer interface {
	MayActAs(ctx context.Context, subjectId, orgId string) (bool, error)
}

// AllowAll authorizes every request. Development and test use only.
type AllowAll struct{}

// MayActAs always returns true
func (AllowAll) MayActAs(ctx context.Context, subjectId, orgId string) (bool, error) {
	return true, nil
}

const (
	maxAttempts  = 3
	retryBackoff = 100 * time.Millisecond
)

// HTTPClient is the HTTP implementation of Authorizer. Transient failures
// are retried with a short fixed backoff, bounded at maxAttempts; an
// authorization denial is never retried.
type HTTPClient struct {
	baseURL    string
	httpClient *client.Client
}

// NewHTTPClient creates an HTTPClient against the ownership service base URL
func NewHTTPClient(baseURL string) (*HTTPClient, error) {
	httpClient, err := client.NewClient(
		client.WithDialTimeout(5*time.Second),
		client.WithClientReadTimeout(10*time.Second),
		client.WithWriteTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

type mayActAsResponse struct {
	Allowed bool `json:"allowed"`
}

// MayActAs asks the ownership service whether subjectId may author as orgId
func (c *HTTPClient) MayActAs(ctx context.Context, subjectId, orgId string) (bool, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}

		allowed, err := c.mayActAsOnce(ctx, subjectId, orgId)
		if err == nil {
			return allowed, nil
		}
		lastErr = err
		log.CtxWarn(ctx, "ownership request failed (attempt %d/%d): %v", attempt+1, maxAttempts, err)
	}
	return false, lastErr
}

func (c *HTTPClient) mayActAsOnce(ctx context.Context, subjectId, orgId string) (bool, error) {
	req := &protocol.Request{}
	resp := &protocol.Response{}

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(fmt.Sprintf("%s/ownership/may_act_as?subject_id=%s&org_id=%s", c.baseURL, subjectId, orgId))

	if err := c.httpClient.Do(ctx, req, resp); err != nil {
		return false, fmt.Errorf("ownership request: %w", err)
	}

	if resp.StatusCode() != consts.StatusOK {
		return false, fmt.Errorf("ownership service returned status %d", resp.StatusCode())
	}

	var body mayActAsResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return false, fmt.Errorf("decode ownership response: %w", err)
	}
	return body.Allowed, nil
}
