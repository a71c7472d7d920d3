package digest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/hshchk/pkg/hshchk/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileDigest(path string, alg digest.Algorithm) (string, error) {
	fh, err := digest.Open(path, alg)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	if err := fh.Compute(context.Background()); err != nil {
		return "", err
	}
	return fh.Digest(), nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    digest.Algorithm
		wantErr bool
	}{
		{"SHA1", digest.SHA1, false},
		{"sha1", digest.SHA1, false},
		{"Blake2b", digest.BLAKE2B, false},
		{"blake3", digest.BLAKE3, false},
		{"md5", digest.MD5, false},
		{"crc32", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := digest.ParseAlgorithm(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, digest.ErrUnknownAlgorithm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlgorithmsOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []digest.Algorithm{
		digest.MD5, digest.SHA1, digest.SHA256, digest.SHA512,
		digest.BLAKE2B, digest.BLAKE2S, digest.BLAKE3,
	}, digest.Algorithms())
	assert.Equal(t, "SHA256", digest.SHA256.String())
	assert.False(t, digest.Algorithm(42).Valid())
}

func TestFileDigests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		alg     digest.Algorithm
		content string
		want    string
	}{
		{"md5 empty", digest.MD5, "", "d41d8cd98f00b204e9800998ecf8427e"},
		{"md5 data", digest.MD5, "data", "8d777f385d3dfec8815d20f7496026dc"},
		{"sha1 data", digest.SHA1, "data", "a17c9aaa61e80a1bf71d0d850af4e5baa9800bbd"},
		{"sha256 empty", digest.SHA256, "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"blake2s empty", digest.BLAKE2S, "", "69217a3079908094e11121d042354a7c1f55b6482ca1a51e1b250dfd1ed0eef9"},
		{"blake3 empty", digest.BLAKE3, "", "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, tt.content)

			got, err := fileDigest(path, tt.alg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDigestLengths(t *testing.T) {
	t.Parallel()

	want := map[digest.Algorithm]int{
		digest.MD5:     32,
		digest.SHA1:    40,
		digest.SHA256:  64,
		digest.SHA512:  128,
		digest.BLAKE2B: 128,
		digest.BLAKE2S: 64,
		digest.BLAKE3:  64,
	}

	path := writeFile(t, "data")
	for _, alg := range digest.Algorithms() {
		got, err := fileDigest(path, alg)
		require.NoError(t, err, alg.String())
		assert.Len(t, got, want[alg], alg.String())
	}
}

func TestFileHashProgressTwoBlocks(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "datadata")

	var notified []uint64
	fh, err := digest.Open(path, digest.MD5,
		digest.WithBufferSize(2),
		digest.WithProgressBlockSize(func(n uint64) { notified = append(notified, n) }, 4),
	)
	require.NoError(t, err)
	defer fh.Close()

	require.NoError(t, fh.Compute(context.Background()))
	assert.Equal(t, "511ae0b1c13f95e5f08f1a0dd3da3d93", fh.Digest())
	assert.Equal(t, []uint64{4, 8}, notified)
	assert.Equal(t, uint64(8), fh.BytesProcessed())
}

func TestFileHashProgressNotAlignedToBlocks(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "0123456789")

	var notified []uint64
	fh, err := digest.Open(path, digest.SHA1,
		digest.WithBufferSize(3),
		digest.WithProgressBlockSize(func(n uint64) { notified = append(notified, n) }, 4),
	)
	require.NoError(t, err)
	defer fh.Close()

	require.NoError(t, fh.Compute(context.Background()))
	// reads of 3 bytes: running totals 3, 6 (notify), 9 (notify), 10
	assert.Equal(t, []uint64{6, 9}, notified)
}

func TestFileHashWithoutObserver(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "")

	fh, err := digest.Open(path, digest.MD5)
	require.NoError(t, err)
	defer fh.Close()

	assert.False(t, fh.HasProgress())

	fh2, err := digest.Open(path, digest.MD5, digest.WithProgress(func(uint64) {}))
	require.NoError(t, err)
	defer fh2.Close()
	assert.True(t, fh2.HasProgress())
}

func TestFileHashReset(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "data")

	fh, err := digest.Open(path, digest.MD5)
	require.NoError(t, err)
	defer fh.Close()

	require.NoError(t, fh.Compute(context.Background()))
	first := fh.Digest()

	require.NoError(t, fh.Reset())
	require.NoError(t, fh.Compute(context.Background()))
	assert.Equal(t, first, fh.Digest())
}

func TestFileHashCanceled(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "data")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fh, err := digest.Open(path, digest.SHA1)
	require.NoError(t, err)
	defer fh.Close()

	err = fh.Compute(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fh.BytesProcessed())
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := digest.Open(filepath.Join(t.TempDir(), "missing"), digest.SHA1)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
