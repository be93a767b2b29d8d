// Package deps reports whether the external tools a run shells out to are
// installed.
package deps
