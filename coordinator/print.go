//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package coordinator

import (
	"fmt"

	"github.com/oblivious-ram/duoram/ring"
)

// PrintRead reports a reconstructed READ result the way
// coordinator_cli.cpp does, plus the decimal/hex/binary breakdown the
// teacher's own result printer gives for a single scalar.
func PrintRead(idx uint32, v ring.Element) {
	fmt.Printf("READ idx=%d -> reconstructed value = %d\n", idx, v.Uint32())
	fmt.Printf("A[%d] = 0x%08x\n", idx, v.Uint32())
	fmt.Printf("A[%d] = 0b%031b\n", idx, v.Uint32())
}

// PrintWrite reports a completed WRITE the way coordinator_cli.cpp does.
func PrintWrite(idx uint32, v int64) {
	fmt.Printf("WRITE idx=%d value=%d sent as shares\n", idx, v)
}
