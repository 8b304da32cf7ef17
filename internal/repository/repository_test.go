package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameKey(t *testing.T) {
	tests := []struct {
		a, b  string
		equal bool
	}{
		{"Solo Song", "SOLO song", true},
		{"Straße Quiz", "STRASSE QUIZ", true},
		{"  Mime ", "mime", true},
		{"Straße Quiz", "Strase Quiz", false},
		{"Group Dance", "Group Dances", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.equal, NameKey(tt.a) == NameKey(tt.b))
		})
	}
}
