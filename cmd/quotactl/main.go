// Command quotactl administra quotas de um gateway em execução pela API admin.
//
//	quotactl set tenant-1 queries 100 --unit req
//	quotactl get tenant-1 queries
//	quotactl list tenant-1
//	quotactl usage tenant-1
//	quotactl check tenant-1 queries 5
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"quota-gateway/middleware/quota/domain"

	"github.com/alecthomas/kong"
)

type CLI struct {
	Addr    string        `help:"Admin API base URL." default:"http://127.0.0.1:8090" env:"QUOTACTL_ADDR"`
	Timeout time.Duration `help:"Request timeout." default:"5s"`

	Set   SetCmd   `cmd:"" help:"Set (replace) a quota."`
	Get   GetCmd   `cmd:"" help:"Show one quota."`
	List  ListCmd  `cmd:"" help:"List quotas of a principal."`
	Usage UsageCmd `cmd:"" help:"Show recorded usage of a principal."`
	Check CheckCmd `cmd:"" help:"Evaluate a request without recording usage."`
}

// env é compartilhado por todos os comandos.
type env struct {
	ctx    context.Context
	client *client
	out    io.Writer
}

type SetCmd struct {
	Principal string              `arg:"" help:"Principal (tenant, user, API key)."`
	Resource  domain.ResourceType `arg:"" help:"cpu, memory, disk, network, connections or queries."`
	Limit     int64               `arg:"" help:"Maximum allowed consumption."`
	Unit      string              `help:"Unit label."`
}

func (c *SetCmd) Run(e *env) error {
	q, err := e.client.setQuota(e.ctx, c.Principal, c.Resource, c.Limit, c.Unit)
	if err != nil {
		return err
	}
	return printJSON(e.out, q)
}

type GetCmd struct {
	Principal string              `arg:""`
	Resource  domain.ResourceType `arg:""`
}

func (c *GetCmd) Run(e *env) error {
	q, err := e.client.getQuota(e.ctx, c.Principal, c.Resource)
	if err != nil {
		return err
	}
	return printJSON(e.out, q)
}

type ListCmd struct {
	Principal string `arg:""`
}

func (c *ListCmd) Run(e *env) error {
	qs, err := e.client.listQuotas(e.ctx, c.Principal)
	if err != nil {
		return err
	}
	return printJSON(e.out, qs)
}

type UsageCmd struct {
	Principal string `arg:""`
}

func (c *UsageCmd) Run(e *env) error {
	us, err := e.client.usage(e.ctx, c.Principal)
	if err != nil {
		return err
	}
	return printJSON(e.out, us)
}

type CheckCmd struct {
	Principal string              `arg:""`
	Resource  domain.ResourceType `arg:""`
	Amount    int64               `arg:"" optional:"" default:"1"`
}

func (c *CheckCmd) Run(e *env) error {
	res, err := e.client.check(e.ctx, c.Principal, c.Resource, c.Amount)
	if err != nil {
		return err
	}
	return printJSON(e.out, res)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("quotactl"),
		kong.Description("Manage quotas of a running quota gateway."),
		kong.UsageOnError(),
	)

	e := &env{
		ctx:    context.Background(),
		client: newClient(cli.Addr, cli.Timeout),
		out:    os.Stdout,
	}
	if err := kctx.Run(e); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
