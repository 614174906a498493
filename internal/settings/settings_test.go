package settings

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUploadPrefsDefaults(t *testing.T) {
	s := openTestStore(t)

	prefs, err := s.UploadPrefs(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, prefs.AsDocument)
	assert.False(t, prefs.Spoiler)
}

func TestUploadPrefsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetUploadAsDocument(ctx, 1, true))
	require.NoError(t, s.SetSpoiler(ctx, 1, true))

	prefs, err := s.UploadPrefs(ctx, 1)
	require.NoError(t, err)
	assert.True(t, prefs.AsDocument)
	assert.True(t, prefs.Spoiler)

	// Toggling one flag leaves the other alone.
	require.NoError(t, s.SetSpoiler(ctx, 1, false))
	prefs, err = s.UploadPrefs(ctx, 1)
	require.NoError(t, err)
	assert.True(t, prefs.AsDocument)
	assert.False(t, prefs.Spoiler)

	// Other users are unaffected.
	prefs, err = s.UploadPrefs(ctx, 2)
	require.NoError(t, err)
	assert.False(t, prefs.AsDocument)
}

func TestWatermarkLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	wm, err := s.GetWatermark(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, wm)

	require.NoError(t, s.SetTextWatermark(ctx, 1, "hello"))
	wm, err = s.GetWatermark(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, wm)
	assert.Equal(t, "hello", wm.Text)
	assert.Empty(t, wm.ImagePath)

	// Switching to an image watermark replaces the text one.
	require.NoError(t, s.SetImageWatermark(ctx, 1, "/data/logo.png"))
	wm, err = s.GetWatermark(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, wm)
	assert.Empty(t, wm.Text)
	assert.Equal(t, "/data/logo.png", wm.ImagePath)

	require.NoError(t, s.ClearWatermark(ctx, 1))
	wm, err = s.GetWatermark(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, wm)
}

func TestThumbnailLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	path, err := s.GetThumbnail(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, path)

	require.NoError(t, s.SetThumbnail(ctx, 1, "/data/thumb.jpg"))
	path, err = s.GetThumbnail(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "/data/thumb.jpg", path)

	require.NoError(t, s.ClearThumbnail(ctx, 1))
	path, err = s.GetThumbnail(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBotSettings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v, err := s.GetBotSetting(ctx, "motd", "welcome")
	require.NoError(t, err)
	assert.Equal(t, "welcome", v)

	require.NoError(t, s.SetBotSetting(ctx, "motd", "hello"))
	require.NoError(t, s.SetBotSetting(ctx, "motd", "hello again"))

	v, err = s.GetBotSetting(ctx, "motd", "welcome")
	require.NoError(t, err)
	assert.Equal(t, "hello again", v)
}
