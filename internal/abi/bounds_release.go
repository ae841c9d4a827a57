//go:build !abidebug

package abi

// boundsChecks is off in shipped builds: the host is trusted to respect
// buffer bounds and handle lifetimes.
const boundsChecks = false
