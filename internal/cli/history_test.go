package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/bake/pkg/adapters/file"
	"github.com/aretw0/bake/pkg/adapters/memory"
	"github.com/aretw0/bake/pkg/adapters/redis"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenHistory(t *testing.T) {
	h, err := OpenHistory("")
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.NoError(t, h.Close(), "closing no history is fine")

	h, err = OpenHistory("memory")
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, h.Store)
	assert.IsType(t, &memory.Locker{}, h.Locker)

	dir := filepath.Join(t.TempDir(), "runs")
	h, err = OpenHistory("file:" + dir)
	require.NoError(t, err)
	require.IsType(t, &file.Store{}, h.Store)
	assert.Equal(t, dir, h.Store.(*file.Store).BasePath)
	assert.Nil(t, h.Locker)

	_, err = OpenHistory("postgres://db")
	assert.ErrorContains(t, err, "unknown history backend")
}

func TestOpenHistory_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	h, err := OpenHistory("redis://" + mr.Addr())
	require.NoError(t, err)
	defer h.Close()
	require.IsType(t, &redis.Store{}, h.Store)
	require.IsType(t, &redis.Locker{}, h.Locker)

	report := domain.NewRunReport([]string{"build"}, false, time.Now())
	require.NoError(t, h.Store.Save(context.Background(), report))
	ids, err := h.Store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{report.ID}, ids)
}

func TestHistory_Protect(t *testing.T) {
	ctx := context.Background()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	old := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{9}, 32))

	h, err := OpenHistory("memory")
	require.NoError(t, err)
	raw := h.Store
	require.NoError(t, h.Protect([]string{`pw=\S+`}, key+", "+old))

	report := domain.NewRunReport([]string{"login"}, false, time.Now())
	report.Tasks = []domain.TaskResult{{Task: "login", Status: domain.StatusFailed, Error: "login pw=hunter2 failed"}}
	require.NoError(t, h.Store.Save(ctx, report))

	stored, err := raw.Load(ctx, report.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Sealed)
	assert.Empty(t, stored.Tasks)

	loaded, err := h.Store.Load(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "login *** failed", loaded.Tasks[0].Error)
}

func TestHistory_ProtectErrors(t *testing.T) {
	var none *History
	assert.NoError(t, none.Protect([]string{"("}, "x"), "no history, nothing to protect")

	h, err := OpenHistory("memory")
	require.NoError(t, err)
	assert.ErrorContains(t, h.Protect([]string{"("}, ""), "invalid redact pattern")
	assert.ErrorContains(t, h.Protect(nil, "%%%"), "not base64")
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	assert.ErrorContains(t, h.Protect(nil, short), "must be 32 bytes")
}
