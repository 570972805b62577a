package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Pending cache entries never outlive a process, so there is nothing for a
// separate command to flush.
func TestCacheSubcommands(t *testing.T) {
	a := &app{}
	var names []string
	for _, c := range a.cacheCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"check", "purge", "stats"}, names)
}
