package main

import (
	"fmt"
	"io"
)

const usageText = `shmvault backs up and restores System V shared-memory namespaces.

Usage:
  shmvault -b -n NAME[,NAME...] -p DIR [-i INSTANCE] [-t THREADS] [-c] [-z] [-v] [-a]
  shmvault -r -n NAME[,NAME...] -p DIR [-i INSTANCE] [-t THREADS] [-c] [-v] [-a]

Flags:
  -a            analyze only: print what would be done, modify nothing
  -b            back up shared-memory segments to files
  -c            compare CRC32 between segment and file at each transfer
  -h            print this message and exit
  -i INSTANCE   filter by instance, 0..15 (default 0)
  -n NAMES      comma-separated namespace names to process (mandatory)
  -p DIR        backup directory (mandatory)
  -r            restore shared-memory segments from files
  -t THREADS    max I/O threads, 1..1024 (default: number of CPUs)
  -v            verbose
  -z            gzip files on backup (no effect on restore)

Exactly one of -b or -r must be given. Exit status is 0 on success,
nonzero on any failure.
`

func printUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}
