package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilFilterAllowsEverything(t *testing.T) {
	t.Parallel()

	f, err := New()
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.True(t, f.Allow("/any/path"))
}

func TestAllow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		path string
		want bool
	}{
		{"match hit", []Option{WithMatch(`\.txt$`)}, "/root/a.txt", true},
		{"match miss", []Option{WithMatch(`\.txt$`)}, "/root/a.bin", false},
		{"ignore hit", []Option{WithIgnore(`\.tmp$`)}, "/root/a.tmp", false},
		{"ignore miss", []Option{WithIgnore(`\.tmp$`)}, "/root/a.txt", true},
		{"match then ignore", []Option{WithMatch(`\.txt$`), WithIgnore(`secret`)}, "/root/secret.txt", false},
		{"match and not ignored", []Option{WithMatch(`\.txt$`), WithIgnore(`secret`)}, "/root/public.txt", true},
		{"ignore does not widen match", []Option{WithMatch(`\.txt$`), WithIgnore(`secret`)}, "/root/public.bin", false},
		{"glob base name", []Option{WithIgnoreGlobs(".DS_Store")}, "/root/dir/.DS_Store", false},
		{"glob extension", []Option{WithIgnoreGlobs("*.swp")}, "/root/dir/file.swp", false},
		{"glob full path", []Option{WithIgnoreGlobs("**/cache/**")}, "/root/cache/file", false},
		{"glob miss", []Option{WithIgnoreGlobs("*.swp")}, "/root/dir/file.txt", true},
		{"glob relative to root", []Option{WithRoot("/root"), WithIgnoreGlobs("sub/*.tmp")}, "/root/sub/a.tmp", false},
		{"glob relative deeper miss", []Option{WithRoot("/root"), WithIgnoreGlobs("sub/*.tmp")}, "/root/other/sub/a.tmp", true},
		{"glob relative needs root", []Option{WithIgnoreGlobs("sub/*.tmp")}, "/root/sub/a.tmp", true},
		{"glob outside root", []Option{WithRoot("/root"), WithIgnoreGlobs("*/a.tmp")}, "/elsewhere/x/a.tmp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := New(tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Allow(tt.path))
		})
	}
}

func TestInvalidPatterns(t *testing.T) {
	t.Parallel()

	_, err := New(WithMatch("("))
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = New(WithIgnore("[a-"))
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = New(WithIgnoreGlobs("[unclosed"))
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
