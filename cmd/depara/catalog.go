package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

type catalogCmd struct {
	Check catalogCheckCmd `cmd:"" help:"Validate a catalog file."`
	List  catalogListCmd  `cmd:"" help:"List categories and their entities."`
}

type catalogCheckCmd struct {
	Path string `arg:"" optional:"" type:"existingfile" help:"Catalog YAML; the embedded catalog when omitted."`
}

func (cmd *catalogCheckCmd) Run(_ context.Context) error {
	cat, err := loadCatalog(cmd.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ %d entities in %d categories\n", len(cat.Entities), len(cat.Categories))
	return nil
}

type catalogListCmd struct {
	Path string `arg:"" optional:"" type:"existingfile" help:"Catalog YAML; the embedded catalog when omitted."`
}

func (cmd *catalogListCmd) Run(_ context.Context) error {
	cat, err := loadCatalog(cmd.Path)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSCOPE\tKEY\tTABLE\tROUTE")
	for _, c := range cat.Categories {
		for _, e := range cat.CategoryEntities(c) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Scope, e.Key, e.Table, e.Route)
		}
	}
	return tw.Flush()
}
