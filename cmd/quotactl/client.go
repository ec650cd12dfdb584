package main

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

	"quota-gateway/middleware/quota/admin"
	"quota-gateway/middleware/quota/domain"
)

// client fala com a API admin do gateway.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *client) setQuota(ctx context.Context, p string, rt domain.ResourceType, limit int64, unit string) (domain.ResourceQuota, error) {
	var out domain.ResourceQuota
	err := c.do(ctx, http.MethodPut, "/quotas/"+url.PathEscape(p)+"/"+rt.String(), admin.SetQuotaRequest{Limit: &limit, Unit: unit}, &out)
	return out, err
}

func (c *client) getQuota(ctx context.Context, p string, rt domain.ResourceType) (domain.ResourceQuota, error) {
	var out domain.ResourceQuota
	err := c.do(ctx, http.MethodGet, "/quotas/"+url.PathEscape(p)+"/"+rt.String(), nil, &out)
	return out, err
}

func (c *client) listQuotas(ctx context.Context, p string) (map[domain.ResourceType]domain.ResourceQuota, error) {
	out := map[domain.ResourceType]domain.ResourceQuota{}
	err := c.do(ctx, http.MethodGet, "/quotas/"+url.PathEscape(p), nil, &out)
	return out, err
}

func (c *client) usage(ctx context.Context, p string) (map[domain.ResourceType]domain.ResourceUsage, error) {
	out := map[domain.ResourceType]domain.ResourceUsage{}
	err := c.do(ctx, http.MethodGet, "/usage/"+url.PathEscape(p), nil, &out)
	return out, err
}

func (c *client) check(ctx context.Context, p string, rt domain.ResourceType, amount int64) (admin.CheckResponse, error) {
	var out admin.CheckResponse
	err := c.do(ctx, http.MethodPost, "/check", admin.CheckRequest{Principal: p, Resource: rt.String(), RequestedAmount: amount}, &out)
	return out, err
}

func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			return fmt.Errorf("%s %s: %s", method, path, resp.Status)
		}
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, e.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
