package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gonohash/cache"
	"gonohash/nohash"
	"gonohash/server"
)

func newRootCmd() *cobra.Command {
	var cfgFile, addr string

	cmd := &cobra.Command{
		Use:   "nohashd",
		Short: "Redis-compatible store for integer keys, sharded by identity hash",
		Args:  cobra.NoArgs,
		// main logs the returned error
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ReadConfig(cfgFile)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			return run(cfg)
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "path to a yaml config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config file")

	return cmd
}

func run(cfg *Config) error {
	db, err := cache.NewCache[nohash.Uint64, string](cfg.Shards)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.NewHandler(db).NewServer(cfg.Addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		log.Println("shutting down")
		srv.Close()
	}()

	log.Println("Starting Redis-compatible server on", cfg.Addr, "with", db.Shards(), "shards")

	return srv.ListenAndServe()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
