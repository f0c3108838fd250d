// Package workspace manages scratch directories used by tasks that need a
// temporary checkout, such as cloning an older documentation branch or
// staging a gh-pages publish. Each Manager owns one directory named
// buildseq-<purpose>-<timestamp>-<random> that Cleanup removes.
package workspace
