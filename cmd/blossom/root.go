package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/cobra"

	"github.com/meigma/blossom"
)

var (
	servers   []string
	secretKey string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "blossom",
	Short: "Distribute content-addressed blobs to Blossom servers",
	Long: `blossom pushes files to Blossom media servers, signing authorization
events with a nostr key and mirroring between servers to save bandwidth.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

var putCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Distribute a file to the configured servers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(servers) == 0 {
			return fmt.Errorf("at least one --server is required")
		}

		var opts []blossom.Option
		if secretKey != "" {
			opts = append(opts, blossom.WithSigner(secretKey))
		}
		client, err := blossom.NewClient(opts...)
		if err != nil {
			return err
		}

		blob := blossom.FromFile(args[0])
		id, err := blob.Identity()
		if err != nil {
			return err
		}
		log.Info("distributing", "file", args[0], "sha256", id.SHA256,
			"size", humanize.Bytes(uint64(id.Size)), "servers", len(servers))

		start := time.Now()
		results, err := client.Distribute(cmd.Context(), servers, blob,
			blossom.WithOnSuccess(func(server string, _ *blossom.Blob) {
				log.Info("stored", "server", server)
			}),
			blossom.WithOnFailure(func(server string, _ *blossom.Blob, err error) {
				log.Error("rejected", "server", server, "error", err)
			}),
		)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no server accepted the blob")
		}

		log.Info("done", "stored", len(results), "failed", len(servers)-len(results),
			"elapsed", time.Since(start).Round(time.Millisecond))
		// Emit URLs in the order servers were given, for stable scripting.
		for _, server := range servers {
			if desc, ok := results[server]; ok {
				cmd.Println(desc.URL)
			}
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list <server> [pubkey]",
	Short: "List blobs stored on a server",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pubkey string
		switch {
		case len(args) == 2:
			pubkey = args[1]
		case secretKey != "":
			pk, err := nostr.GetPublicKey(secretKey)
			if err != nil {
				return fmt.Errorf("derive pubkey: %w", err)
			}
			pubkey = pk
		default:
			return fmt.Errorf("a pubkey argument or --sec is required")
		}

		var opts []blossom.Option
		if secretKey != "" {
			opts = append(opts, blossom.WithSigner(secretKey))
		}
		client, err := blossom.NewClient(opts...)
		if err != nil {
			return err
		}

		descs, err := client.List(cmd.Context(), args[0], pubkey)
		if err != nil {
			return err
		}
		for _, desc := range descs {
			cmd.Printf("%s\t%s\t%s\n", desc.SHA256, humanize.Bytes(uint64(desc.Size)), desc.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&servers, "server", "s", nil, "server base URL (repeatable)")
	rootCmd.PersistentFlags().StringVar(&secretKey, "sec", "", "nostr secret key (hex) for signing authorization events")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(putCmd, listCmd)
}
