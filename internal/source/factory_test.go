package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestNew(t *testing.T) {
	keyring.MockInit()
	root := writeDocs(t, map[string]string{"ADRs/a.md": "# A"})
	cats := []string{"ADRs"}

	t.Run("local", func(t *testing.T) {
		src, err := New(context.Background(), Config{Kind: KindLocal, BasePath: root, Categories: cats}, nil)
		require.NoError(t, err)
		defer Close(src)
		assert.IsType(t, &LocalSource{}, src)
	})

	t.Run("github", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "")
		src, err := New(context.Background(), Config{Kind: KindGitHub, Owner: "acme", Repository: "handbook", Categories: cats}, nil)
		require.NoError(t, err)
		assert.IsType(t, &GitHubSource{}, src)
		assert.NoError(t, Close(src))
	})

	t.Run("git", func(t *testing.T) {
		src, err := New(context.Background(), Config{
			Kind: KindGit, Owner: "acme", Repository: "handbook", CloneDir: t.TempDir(), Categories: cats,
		}, nil)
		require.NoError(t, err)
		_, ok := src.(Syncer)
		assert.True(t, ok)
		assert.NoError(t, Close(src))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := New(context.Background(), Config{Kind: KindLocal, Categories: cats}, nil)
		assert.Error(t, err)
	})
}
