package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "   ", nil},
		{"json array", `["a", "b"]`, []string{"a", "b"}},
		{"json mixed", `["a", 1, null]`, []string{"a", "1", "None"}},
		{"csv", " a, ,b ,c", []string{"a", "b", "c"}},
		{"json object falls back to csv", `{"a": 1}`, []string{`{"a": 1}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseTags(tt.raw))
		})
	}
}

func TestSplitFilterTags(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, SplitFilterTags("a,, b "))
	require.Nil(t, SplitFilterTags(""))
}
