package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viviztech/voterapp/constants"
	"github.com/viviztech/voterapp/internal/common"
)

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("not a real image"), 0o644))
	return path
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.pdf"), Config{}, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDocumentNotFound))
}

func TestOpenUnsupportedExtension(t *testing.T) {
	for _, name := range []string{"roll.docx", "roll.txt", "roll"} {
		t.Run(name, func(t *testing.T) {
			_, err := Open(writeTempFile(t, name), Config{}, nil, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))
		})
	}
}

func TestOpenImage(t *testing.T) {
	for _, name := range []string{"scan.png", "scan.jpg", "scan.JPEG", "scan.webp"} {
		t.Run(name, func(t *testing.T) {
			src, err := Open(writeTempFile(t, name), Config{}, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, constants.IMAGE, src.Format())
			assert.Equal(t, 1, src.PageCount())
		})
	}
}

func TestImagePageNumbersIgnoreSkip(t *testing.T) {
	src, err := Open(writeTempFile(t, "scan.png"), Config{}, nil, nil)
	require.NoError(t, err)

	// skip applies to PDF cover pages, never to single images
	assert.Equal(t, []int{1}, src.PageNumbers(0))
	assert.Equal(t, []int{1}, src.PageNumbers(2))
}

func TestImageLoadPageReturnsInputPath(t *testing.T) {
	path := writeTempFile(t, "scan.png")
	src, err := Open(path, Config{}, nil, nil)
	require.NoError(t, err)

	page, cleanup, err := src.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, 1, page.Number)
	assert.Equal(t, path, page.Path)

	// cleanup must not delete the caller's input file
	cleanup()
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestLoadPageOutOfRange(t *testing.T) {
	src, err := Open(writeTempFile(t, "scan.png"), Config{}, nil, nil)
	require.NoError(t, err)

	_, _, err = src.LoadPage(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, _, err = src.LoadPage(context.Background(), 0)
	require.Error(t, err)
}
