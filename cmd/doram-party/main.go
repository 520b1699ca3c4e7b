//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package main

import (
	"fmt"
	"net"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/oblivious-ram/duoram/env"
	"github.com/oblivious-ram/duoram/party"
)

func main() {
	var (
		role       string
		rows       uint32
		listen     string
		peerListen string
		peer       string
		share      string
		verbose    bool
	)

	command := &cobra.Command{
		Use:   "doram-party",
		Short: "Run one DORAM online-engine party",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()

			r, err := parseRole(role)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			userLn, err := net.Listen("tcp", listen)
			if err != nil {
				return xerrors.Errorf("listen user port: %w", err)
			}
			residualLn, err := net.Listen("tcp", ":"+peerListen)
			if err != nil {
				return xerrors.Errorf("listen residual port: %w", err)
			}

			p := party.New(r, rows, share, peer, &env.Config{Log: &log}, verbose)
			return p.Serve(userLn, residualLn)
		},
	}

	command.Flags().StringVar(&role, "role", "", "party role: A or B")
	command.Flags().Uint32Var(&rows, "rows", 0, "number of rows N in the array")
	command.Flags().StringVar(&listen, "listen", "", "user-port listen address (HOST:PORT)")
	command.Flags().StringVar(&peerListen, "peer-listen", "9302", "inbound residual-port listen port")
	command.Flags().StringVar(&peer, "peer", "", "peer party's residual-port address (HOST:PORT)")
	command.Flags().StringVar(&share, "share", "", "dealer address (HOST:PORT)")
	command.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-session timing reports")

	_ = command.MarkFlagRequired("role")
	_ = command.MarkFlagRequired("rows")
	_ = command.MarkFlagRequired("listen")
	_ = command.MarkFlagRequired("peer")
	_ = command.MarkFlagRequired("share")

	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseRole(s string) (party.Role, error) {
	switch s {
	case "A", "a":
		return party.RoleA, nil
	case "B", "b":
		return party.RoleB, nil
	default:
		return 0, xerrors.Errorf("unknown role %q, want A or B", s)
	}
}
