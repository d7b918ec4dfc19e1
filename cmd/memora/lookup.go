// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

type lookupCommand struct{}

func (c *lookupCommand) Name() string      { return "lookup" }
func (c *lookupCommand) Args() string      { return "<artifact>" }
func (c *lookupCommand) ShortHelp() string { return "Look an artifact up in the cache" }
func (c *lookupCommand) LongHelp() string {
	return "Exits zero if and only if <artifact> is cached. Does not copy anything."
}

func (c *lookupCommand) Run(ctx *ctx, args []string) error {
	name, err := singleArtifactArg(args)
	if err != nil {
		return err
	}

	sess, err := open(ctx.workingDir)
	if err != nil {
		return err
	}

	if disabled, v := sess.manifest.Disabled(); disabled {
		ctx.logf("cache disabled because %s is set", v)
		return errCacheMiss
	}

	inputs, outputs, err := sess.resolve(name)
	if err != nil {
		return err
	}

	rev, ok, err := sess.engine.Lookup(inputs, outputs, ctx.ignoreUncommittedChanges)
	if err != nil {
		return err
	}
	if !ok {
		ctx.out.Printf("artifact %q not found in cache\n", name)
		return errCacheMiss
	}
	ctx.out.Printf("found artifact %q in %s\n", name, rev)
	return nil
}
