package main

import (
	"context"

	"github.com/alecthomas/kong"
)

type cli struct {
	Serve   serveCmd   `cmd:"" default:"withargs" help:"Run the dashboard server."`
	Render  renderCmd  `cmd:"" help:"Render a dashboard page from a statistics file."`
	Seed    seedCmd    `cmd:"" help:"Create demo projects and tenant databases."`
	Catalog catalogCmd `cmd:"" help:"Inspect the entity catalog."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Name("depara"),
		kong.Description("DePara mapping progress dashboard."),
		kong.UsageOnError(),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}
