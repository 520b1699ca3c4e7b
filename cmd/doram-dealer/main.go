//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package main

import (
	"net"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/oblivious-ram/duoram/dealer"
	"github.com/oblivious-ram/duoram/env"
)

func main() {
	var listen string
	var verbose bool

	command := &cobra.Command{
		Use:   "doram-dealer",
		Short: "Run the Du-Atallah correlated-randomness dealer",
		Run: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				log.Fatal().Err(err).Msg("listen")
			}

			srv := dealer.NewServer(ln, &env.Config{Log: &log})
			if err := srv.Serve(); err != nil {
				log.Fatal().Err(err).Msg("serve")
			}
		},
	}

	command.Flags().StringVar(&listen, "listen", "0.0.0.0:9300", "address to listen on")
	command.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := command.Execute(); err != nil {
		panic(err)
	}
}
