package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"declbot/internal/catalog"
	"declbot/internal/port"
	"declbot/internal/repository/sqlstore"
)

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the configured product catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, closeDB, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()
			return printCatalog(cmd.OutOrStdout(), cat)
		},
	}
}

func (a *app) loadCatalog(ctx context.Context) (*catalog.Catalog, func(), error) {
	var (
		repo    port.CatalogRepository
		closeDB = func() {}
	)
	if a.cfg.Catalog.Source == catalog.SourceDB {
		db, err := sqlstore.NewDB(&a.cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo = sqlstore.NewCatalogRepo(db)
		closeDB = func() { _ = db.Close() }
	}
	cat, err := catalog.Load(ctx, a.cfg.Catalog.Source, a.cfg.Catalog.Path, repo)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, closeDB, nil
}

func printCatalog(out io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tCODE\tCERT\tORIGIN")
	for i, e := range cat.Entries() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, e.Name, e.CustomsCode,
			yesNo(e.CertificationRequired), yesNo(e.OriginCertificateAvailable))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
