// Package git wraps go-git for the two repository operations the build needs:
//
//   - cloning a single branch (the archived v2 documentation) into a scratch dir
//   - publishing a directory to a hosting branch such as gh-pages
//
// Authentication comes from config.AuthConfig (token, basic, ssh). Clone failures are
// classified into typed errors and transient ones are retried with a retry.Policy.
package git
