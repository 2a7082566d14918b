// Package remotes maintains the named git remotes a sync run depends on.
//
// Table holds the validated, ordered remote definitions supplied by
// configuration. Executor adds any definition missing from the repository
// without touching remotes that already exist, then fetches every configured
// remote in name order.
package remotes
