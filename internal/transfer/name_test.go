package transfer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/stretchr/testify/assert"
)

func TestFileName(t *testing.T) {
	cases := []struct {
		a    asset.Asset
		want string
	}{
		{asset.Asset{Title: "Sunset over the sea!", PrimaryUrl: "https://x/a/b.jpeg"}, "Sunset_over_the_sea_.jpeg"},
		{asset.Asset{Id: "42", PrimaryUrl: "https://x/a/b"}, "image_42.jpg"},
		{asset.Asset{Id: "4/2", Title: "  ", PrimaryUrl: "https://x/a.tiff"}, "image_4_2.jpg"},
		{asset.Asset{PrimaryUrl: "::"}, "image.jpg"},
		{asset.Asset{Title: "café", PrimaryUrl: "https://x/a.webp"}, "caf_.webp"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FileName(tc.a))
	}

	long := FileName(asset.Asset{Title: strings.Repeat("a", 80), PrimaryUrl: "https://x/y.png"})
	assert.Equal(t, strings.Repeat("a", 50)+".png", long)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "png", Extension("https://x/img.PNG"))
	assert.Equal(t, "svg", Extension("https://x/img.svg?v=1#frag"))
	assert.Equal(t, "jpg", Extension("https://x/img.bmp"))
	assert.Equal(t, "jpg", Extension("https://x/"))
	assert.Equal(t, "jpg", Extension("%%"))
}

func TestUniqueNames(t *testing.T) {
	assets := []asset.Asset{
		{Title: "a", PrimaryUrl: "https://x/1.jpg"},
		{Title: "a", PrimaryUrl: "https://x/2.jpg"},
		{Title: "a_2", PrimaryUrl: "https://x/3.jpg"},
	}
	assert.Equal(t, []string{"a.jpg", "a_2.jpg", "a_2_2.jpg"}, uniqueNames(assets))
}

func TestRateThrottle(t *testing.T) {
	th := NewRateThrottle(100, 0)
	assert.Equal(t, 1, th.Width())
	start := time.Now()
	for i := 0; i < 3; i++ {
		assert.NoError(t, th.Wait(context.Background(), i))
	}
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestBatchThrottleFirstBatchImmediate(t *testing.T) {
	th := &BatchThrottle{Size: 3, Pause: time.Hour}
	assert.NoError(t, th.Wait(context.Background(), 0))

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, th.Wait(cctx, 1))
	assert.Equal(t, DefaultBatchWidth, NewBatchThrottle().Width())
}
