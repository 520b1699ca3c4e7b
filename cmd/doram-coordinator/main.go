//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/oblivious-ram/duoram/coordinator"
	"github.com/oblivious-ram/duoram/ring"
)

// runtimeError marks an error that occurred after flag parsing succeeded
// (a failed dial, write, or read), so main can tell it apart from
// cobra's own usage-validation failures and exit 2 rather than 1.
type runtimeError struct {
	err error
}

func (e *runtimeError) Error() string { return e.err.Error() }
func (e *runtimeError) Unwrap() error { return e.err }

func main() {
	var (
		op  string
		dim uint32
		idx uint32
		val int64
		c0  string
		c1  string
	)

	command := &cobra.Command{
		Use:           "doram-coordinator",
		Short:         "Issue a single WRITE or READ against a DORAM deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := coordinator.New(dim, c0, c1, rand.Reader)
			ctx := context.Background()

			switch op {
			case "write":
				if err := cl.Write(ctx, idx, ring.FromInt32(int32(val))); err != nil {
					return &runtimeError{err}
				}
				coordinator.PrintWrite(idx, val)
			case "read":
				got, err := cl.Read(ctx, idx)
				if err != nil {
					return &runtimeError{err}
				}
				coordinator.PrintRead(idx, got)
			default:
				return xerrors.Errorf("unknown op %q, want read or write", op)
			}
			return nil
		},
	}

	command.Flags().StringVar(&op, "op", "", "operation: read or write")
	command.Flags().Uint32Var(&dim, "dim", 0, "number of rows N in the array")
	command.Flags().Uint32Var(&idx, "idx", 0, "row index")
	command.Flags().Int64Var(&val, "val", 0, "value to write (write only)")
	command.Flags().StringVar(&c0, "c0", "", "party A user-port address (HOST:PORT)")
	command.Flags().StringVar(&c1, "c1", "", "party B user-port address (HOST:PORT)")

	_ = command.MarkFlagRequired("op")
	_ = command.MarkFlagRequired("dim")
	_ = command.MarkFlagRequired("c0")
	_ = command.MarkFlagRequired("c1")

	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var rerr *runtimeError
		if errors.As(err, &rerr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

