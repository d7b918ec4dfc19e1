// Copyright 2026 The Memora Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

type insertCommand struct{}

func (c *insertCommand) Name() string      { return "insert" }
func (c *insertCommand) Args() string      { return "<artifact>" }
func (c *insertCommand) ShortHelp() string { return "Insert the outputs of an artifact into the cache" }
func (c *insertCommand) LongHelp() string {
	return "Copies the working tree's current outputs of <artifact> into the cache,\n" +
		"under the revision the artifact requires. A no-op if that revision is\n" +
		"already cached."
}

func (c *insertCommand) Run(ctx *ctx, args []string) error {
	name, err := singleArtifactArg(args)
	if err != nil {
		return err
	}

	sess, err := open(ctx.workingDir)
	if err != nil {
		return err
	}

	if disabled, v := sess.manifest.Disabled(); disabled {
		ctx.logf("cache disabled because %s is set, not inserting", v)
		return nil
	}

	inputs, outputs, err := sess.resolve(name)
	if err != nil {
		return err
	}

	rev, inserted, err := sess.engine.Insert(inputs, outputs, ctx.ignoreUncommittedChanges)
	if err != nil {
		return err
	}
	if inserted {
		ctx.out.Printf("inserted artifact %q under %s\n", name, rev)
	} else {
		ctx.out.Printf("artifact %q already cached under %s, did not insert\n", name, rev)
	}
	return nil
}
