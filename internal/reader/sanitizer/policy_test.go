// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text",
			input: "Foo bar baz",
			want:  "Foo bar baz",
		},
		{
			name:  "with html",
			input: "Foo <strong>bar</strong> baz",
			want:  "Foo bar baz",
		},
		{
			name:  "broken html",
			input: "Foo <strong>bar baz",
			want:  "Foo bar baz",
		},
		{
			name:  "leading spaces",
			input: "   Foo bar baz ",
			want:  "Foo bar baz",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.input))
		})
	}
}

func TestSanitizeContent(t *testing.T) {
	t.Run("strips scripts", func(t *testing.T) {
		got := SanitizeContent(`<p>Hello</p><script>alert(1)</script>`)
		assert.Equal(t, `<p>Hello</p>`, got)
	})

	t.Run("strips inline event handlers", func(t *testing.T) {
		got := SanitizeContent(
			`<a href="https://example.com/" onclick="evil()">x</a>`)
		assert.NotContains(t, got, "onclick")
		assert.Contains(t, got, `href="https://example.com/"`)
		assert.Contains(t, got, `target="_blank"`)
	})

	t.Run("keeps table layout", func(t *testing.T) {
		input := `<table width="600" align="center"><tr>` +
			`<td bgcolor="#ffffff">x</td></tr></table>`
		assert.Equal(t, input, SanitizeContent(input))
	})

	t.Run("img loading lazy", func(t *testing.T) {
		got := SanitizeContent(
			`<img src="https://example.com/logo.png" width="10">`)
		assert.Contains(t, got, `loading="lazy"`)
		assert.NotContains(t, got, "<script")
	})
}

func TestTruncateHTML(t *testing.T) {
	assert.Equal(t, "Foo bar", TruncateHTML("<p>Foo\n  bar</p>", 20))
	assert.Equal(t, "Foo…", TruncateHTML("Foo bar", 4))
}
