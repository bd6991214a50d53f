package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boreal-data/transfers-cli/internal/fetcher"
	"github.com/boreal-data/transfers-cli/internal/model"
	"github.com/boreal-data/transfers-cli/internal/scrape"
)

var scrapeForce bool

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch and store the transfers dataset",
	Long:  "Downloads the major federal transfers page, parses the per-jurisdiction tables, and saves a cleaned snapshot. Skips the save when the page is unchanged since the last scrape unless --force is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    cfg.Scrape.UserAgent,
			Timeout:      time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
			MaxRetries:   cfg.Scrape.MaxRetries,
			RateLimiters: fetcher.DefaultRateLimiters(),
		})

		page, changed, err := fetchPage(ctx, f, env, scrapeForce)
		if err != nil {
			return err
		}
		if !changed {
			zap.L().Info("source page unchanged since last scrape, nothing to do",
				zap.String("url", env.Catalog.SourceURL),
			)
			return nil
		}

		tables, err := scrape.ParseTables(page.Body)
		if err != nil {
			return err
		}

		records, used, err := scrape.Normalize(ctx, tables, env.Catalog)
		if err != nil {
			return err
		}
		if used == 0 {
			return eris.New("no usable transfer tables on page, source layout may have changed")
		}

		snap, err := env.Store.SaveSnapshot(ctx, model.Snapshot{
			SourceURL:  env.Catalog.SourceURL,
			ETag:       page.ETag,
			TableCount: used,
			ScrapedAt:  page.FetchedAt,
		}, records)
		if err != nil {
			return err
		}

		zap.L().Info("scrape complete",
			zap.String("snapshot_id", snap.ID),
			zap.Int("tables", snap.TableCount),
			zap.Int("records", snap.RowCount),
		)
		return nil
	},
}

// fetchPage downloads the source page. With force it fetches unconditionally;
// otherwise it sends the stored snapshot's ETag and reports changed=false
// when the page has not moved.
func fetchPage(ctx context.Context, f fetcher.Fetcher, env *cmdEnv, force bool) (*fetcher.Page, bool, error) {
	if force {
		page, err := f.Fetch(ctx, env.Catalog.SourceURL)
		if err != nil {
			return nil, false, eris.Wrap(err, "fetch source page")
		}
		return page, true, nil
	}

	etag := ""
	prev, err := env.Store.LatestSnapshot(ctx, env.Catalog.SourceURL)
	if err != nil {
		return nil, false, err
	}
	if prev != nil {
		etag = prev.ETag
	}

	page, changed, err := f.FetchIfChanged(ctx, env.Catalog.SourceURL, etag)
	if err != nil {
		return nil, false, eris.Wrap(err, "fetch source page")
	}
	return page, changed, nil
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeForce, "force", false, "Re-scrape even when the page ETag is unchanged")
	rootCmd.AddCommand(scrapeCmd)
}
