package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stefando/zoomSyncAWS/internal/app"
	"github.com/stefando/zoomSyncAWS/internal/config"
	"github.com/stefando/zoomSyncAWS/internal/logging"
	"github.com/stefando/zoomSyncAWS/internal/metrics"
	"github.com/stefando/zoomSyncAWS/internal/mirror"
	"github.com/stefando/zoomSyncAWS/internal/storage"
	"github.com/stefando/zoomSyncAWS/internal/upload"
)

// cli holds state shared by the subcommands
type cli struct {
	configFile  string
	logLevel    string
	metricsAddr string

	cfg config.Config
	log *zap.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "zoomsync",
		Short:         "Mirror Zoom cloud recordings into S3",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Config file (yaml, json or toml); environment overrides it")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&c.metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address while running")

	root.AddCommand(newSyncCommand(c))
	root.AddCommand(newWebhookCommand(c))
	root.AddCommand(newKeysCommand(c))
	root.AddCommand(newUploadFileCommand(c))
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	v, err := config.NewViper(c.configFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		v.Set("LOG_LEVEL", c.logLevel)
	}
	c.log = logging.New(v.GetString("LOG_LEVEL"))

	c.cfg, err = config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	addr := c.metricsAddr
	if addr == "" {
		addr = c.cfg.MetricsAddr
	}
	if addr != "" {
		metrics.Init()
		go func() {
			if err := metrics.Serve(addr); err != nil {
				c.log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		c.log.Info("serving metrics", zap.String("addr", addr))
	}
	return nil
}

func newSyncCommand(c *cli) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Upload all recent recordings of the configured user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days > 0 {
				c.cfg.SyncDays = days
			}
			deps, err := app.Build(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			sum, err := deps.Service.SyncUser(cmd.Context())
			printSummary(cmd, sum)
			return err
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "How many days back to look (overrides SYNC_DAYS)")
	return cmd
}

func newWebhookCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "webhook <body.json>",
		Short: "Replay a saved recording webhook body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			deps, err := app.Build(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			sum, err := deps.Service.HandleWebhook(cmd.Context(), body)
			printSummary(cmd, sum)
			return err
		},
	}
}

func newKeysCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the keys the next batch will treat as already present",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := upload.ExistingKeys(cmd.Context(), store, c.cfg.Bucket)
			if err != nil {
				return err
			}
			for _, k := range sortedKeys(keys) {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newUploadFileCommand(c *cli) *cobra.Command {
	var (
		name string
		meta []string
	)
	cmd := &cobra.Command{
		Use:   "upload-file <key> <path>",
		Short: "Upload a local file under key with a single multipart session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := parseMeta(meta)
			if err != nil {
				return err
			}
			rec, err := newFileRecording(args[0], args[1], name, md)
			if err != nil {
				return err
			}
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}

			s := upload.NewSession(store, c.cfg.Bucket, rec, upload.SessionConfig{
				ChunkSize:    c.cfg.ChunkSize,
				StorageClass: c.cfg.StorageClass,
				Reporter:     logging.NewReporter(c.log),
			})
			if err := s.Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes in %d parts, etag %s\n", rec.ID(), s.Bytes(), len(s.Parts()), s.ETag())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Download file name (defaults to the file's base name)")
	cmd.Flags().StringSliceVar(&meta, "meta", nil, "Object metadata as key=value, repeatable")
	return cmd
}

func (c *cli) store(ctx context.Context) (storage.ObjectStore, error) {
	awsCfg, err := app.LoadAWS(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	return app.NewStore(c.cfg, awsCfg)
}

func printSummary(cmd *cobra.Command, sum mirror.Summary) {
	fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d meetings, %d uploaded, %d skipped, %d failed, %d abort failures\n",
		sum.BatchID, sum.Meetings, sum.Uploaded, sum.Skipped, sum.Failed, sum.AbortFailures)
}

func sortedKeys(keys upload.KeySet) []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func parseMeta(pairs []string) (map[string]string, error) {
	md := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q, want key=value", p)
		}
		md[k] = v
	}
	return md, nil
}
