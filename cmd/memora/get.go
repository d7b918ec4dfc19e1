// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

type getCommand struct{}

func (c *getCommand) Name() string      { return "get" }
func (c *getCommand) Args() string      { return "<artifact>" }
func (c *getCommand) ShortHelp() string { return "Get the outputs of an artifact from the cache" }
func (c *getCommand) LongHelp() string {
	return "Copies the cached outputs of <artifact> into the working tree.\n" +
		"Exits non-zero if the artifact is not cached."
}

func (c *getCommand) Run(ctx *ctx, args []string) error {
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

	rev, ok, err := sess.engine.Get(inputs, outputs, ctx.ignoreUncommittedChanges)
	if err != nil {
		return err
	}
	if !ok {
		ctx.out.Printf("artifact %q not found in cache\n", name)
		return errCacheMiss
	}
	ctx.out.Printf("got artifact %q from %s\n", name, rev)
	return nil
}
