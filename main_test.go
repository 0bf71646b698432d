package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectedModules(t *testing.T) {
	tests := []struct {
		bin    string
		expect int
	}{
		{bin: "", expect: 2},
		{bin: "all", expect: 2},
		{bin: "auth", expect: 1},
		{bin: " Idempotency ", expect: 1},
	}

	for _, tc := range tests {
		t.Run(tc.bin, func(t *testing.T) {
			assert.Len(t, selectedModules(tc.bin), tc.expect)
		})
	}
}
