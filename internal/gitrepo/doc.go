// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// Repository wraps go-git for read-mostly work (root discovery, remote listing and
// creation, commit range counting). CommandManager drives the git CLI through
// execshell for the network and worktree operations: clone, fetch, branch
// creation, and push.
package gitrepo
