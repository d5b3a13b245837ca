package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVideoID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "atom namespace qualifier", raw: "yt:video:dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "already normalized", raw: "dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "prefix only once", raw: "yt:video:yt:video:abc", want: "yt:video:abc"},
		{name: "plain guid from rss", raw: "https://example.com/posts/42", want: "https://example.com/posts/42"},
		{name: "empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeVideoID(tt.raw))
		})
	}
}
