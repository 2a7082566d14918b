// Package githubapi wraps the GitHub REST API for the olmsync workflow.
//
// Client authenticates with a static token through golang.org/x/oauth2 and
// exposes the handful of go-github calls a sync run needs: resolving the
// authenticated login, checking that the fork exists, and creating, finding,
// and editing the sync pull request.
package githubapi
