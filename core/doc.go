// Package core holds the shared primitives of planweave: role-based
// message content exchanged with language models, run events recorded by
// workflows, and the list reducers used to merge state across concurrent
// graph branches.
package core
