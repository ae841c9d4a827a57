//go:build abidebug

package abi

// boundsChecks turns contract violations into descriptive panics.
const boundsChecks = true
