// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/andreaskurth/memora"
)

// command is the interface every memora subcommand implements, mirroring
// the shape the rest of this tool's ecosystem uses for its own CLIs.
type command interface {
	Name() string      // "get"
	Args() string      // "<artifact>"
	ShortHelp() string // "Get the outputs of an artifact from the cache"
	LongHelp() string
	Run(ctx *ctx, args []string) error
}

var errCacheMiss = fmt.Errorf("cache miss")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	outLogger := log.New(stdout, "", 0)
	errLogger := log.New(stderr, "memora: ", 0)

	commands := []command{
		&getCommand{},
		&insertCommand{},
		&lookupCommand{},
	}

	usage := func() {
		fmt.Fprintln(stderr, "Usage: memora <command> [flags] <artifact>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Commands:")
		fmt.Fprintln(stderr)
		w := tabwriter.NewWriter(stderr, 0, 4, 2, ' ', 0)
		for _, cmd := range commands {
			fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.ShortHelp())
		}
		w.Flush()
	}

	if len(args) == 0 || strings.ToLower(args[0]) == "-h" || strings.ToLower(args[0]) == "--help" {
		usage()
		return 2
	}

	for _, cmd := range commands {
		if cmd.Name() != args[0] {
			continue
		}

		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		fs.SetOutput(stderr)
		workingDir := fs.String("C", ".", "run as if started in this directory")
		ignoreUncommitted := fs.Bool("ignore-uncommitted-changes", false, "treat uncommitted changes to inputs or outputs as if they were committed")
		verbose := fs.Bool("v", false, "enable verbose logging")
		resetUsage(fs, cmd.Name(), cmd.Args(), cmd.LongHelp())

		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		c := &ctx{
			workingDir:               *workingDir,
			ignoreUncommittedChanges: *ignoreUncommitted,
			verbose:                  *verbose,
			out:                      outLogger,
			err:                      errLogger,
		}

		switch err := cmd.Run(c, fs.Args()); err {
		case nil:
			return 0
		case errCacheMiss:
			return 1
		default:
			errLogger.Println(err)
			var merr *memora.Error
			if errors.As(err, &merr) && merr.Kind == memora.KindInput {
				fs.Usage()
			}
			return 2
		}
	}

	fmt.Fprintf(stderr, "memora: no such command: %s\n", args[0])
	usage()
	return 2
}

// ctx bundles the flags and loggers every subcommand needs.
type ctx struct {
	workingDir               string
	ignoreUncommittedChanges bool
	verbose                  bool
	out                      *log.Logger
	err                      *log.Logger
}

func (c *ctx) logf(format string, args ...interface{}) {
	if !c.verbose {
		return
	}
	c.err.Printf(format, args...)
}

func resetUsage(fs *flag.FlagSet, name, args, longHelp string) {
	var (
		hasFlags   bool
		flagBlock  bytes.Buffer
		flagWriter = tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	)
	fs.VisitAll(func(f *flag.Flag) {
		hasFlags = true
		defValue := f.DefValue
		if defValue == "" {
			defValue = "<none>"
		}
		fmt.Fprintf(flagWriter, "\t-%s\t%s (default: %s)\n", f.Name, f.Usage, defValue)
	})
	flagWriter.Flush()
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: memora %s %s\n", name, args)
		fmt.Fprintln(fs.Output())
		fmt.Fprintln(fs.Output(), strings.TrimSpace(longHelp))
		fmt.Fprintln(fs.Output())
		if hasFlags {
			fmt.Fprintln(fs.Output(), "Flags:")
			fmt.Fprintln(fs.Output())
			fmt.Fprintln(fs.Output(), flagBlock.String())
		}
	}
}
