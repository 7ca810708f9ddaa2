package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/foomo/grabber"
	"github.com/foomo/grabber/config"
	"github.com/foomo/grabber/logger"
	"github.com/foomo/grabber/vo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	reportsPath = "/reports"
	servicePath = "/service"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <config.yaml>",
		Short: "Grab the listings of the configured sites",
		Long: `Crawl walks the index pages of every configured site, scrapes the listings
linked from them and exports one csv file per site into the output directory.

Sites are crawled one after another. With --addr the prometheus metrics are
served on /metrics, the text reports on /reports and the json status and
results on /service/status and /service/results while crawling.

Examples:
  grabber crawl grabber.yaml
  grabber crawl --site storia --addr :9200 grabber.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("site", "s", "", "Only crawl the site with this name")
	cmd.Flags().StringP("addr", "a", "", "Serve metrics and reports on this address (overrides addr from the config)")
	cmd.Flags().StringP("output", "o", "", "Export directory (overrides output from the config)")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	conf, errConf := config.Get(args[0])
	if errConf != nil {
		return fmt.Errorf("configuration error: %w", errConf)
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		conf.Addr = addr
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		conf.Output = output
	}
	if getVerboseFlag(cmd) {
		conf.Log.Level = "debug"
	}

	l, errLogger := logger.New(conf.Log)
	if errLogger != nil {
		return errLogger
	}
	defer func() { _ = l.Sync() }()
	if l.Core().Enabled(zap.DebugLevel) {
		l.Debug("loaded config", zap.String("config", spew.Sdump(conf)))
	}

	var sites []config.Site
	if name, _ := cmd.Flags().GetString("site"); name != "" {
		site, ok := conf.Site(name)
		if !ok {
			return fmt.Errorf("%w: %s", grabber.ErrUnknownSite, name)
		}
		sites = []config.Site{site}
	}

	g, errGrabber := grabber.NewGrabber(conf, l)
	if errGrabber != nil {
		return errGrabber
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if conf.Addr != "" {
		server := newServer(conf.Addr, g)
		go func() {
			l.Info("serving metrics and reports", zap.String("addr", conf.Addr))
			if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
				l.Error("server failed", zap.Error(errServe))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	exportSite := func(site config.Site, listings []vo.Listing) error {
		filename, errExport := grabber.Export(conf.Output, site.Name, site.FieldNames(), listings, time.Now())
		if errExport != nil {
			return errExport
		}
		l.Info("exported listings", zap.String("site", site.Name), zap.String("file", filename), zap.Int("listings", len(listings)))
		if status := g.CompleteStatus(); status != nil {
			grabber.PrintStatus(cmd.OutOrStdout(), *status)
		}
		return nil
	}
	var errGrab error
	if sites != nil {
		_, errGrab = g.GrabSites(ctx, sites, exportSite)
	} else {
		_, errGrab = g.GrabAll(ctx, exportSite)
	}
	return errGrab
}

func newServer(addr string, g *grabber.Grabber) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", g.MetricsHandler())
	mux.Handle(reportsPath, grabber.GetReportHandler(reportsPath, g))
	mux.Handle(reportsPath+"/", grabber.GetReportHandler(reportsPath, g))
	mux.Handle(servicePath+"/", grabber.NewService(g).Handler(servicePath))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
