package runtimeargs

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plcrun/plcrun/internal/buftype"
	"github.com/plcrun/plcrun/internal/image"
	"github.com/plcrun/plcrun/internal/journal"
)

func TestBuildWiresJournalWrites(t *testing.T) {
	img := image.New(8)
	j := journal.New()
	j.Init(img)
	log := slog.Default()

	a := Build(img, j, log, "s7comm", "/etc/plcrun/s7comm.json")

	assert.Equal(t, 8, a.BufferSize)
	assert.Equal(t, image.BitsPerByteBucket, a.BitsPerBucket)

	require.NoError(t, a.WriteByte(buftype.ByteOutput, 0, 42))
	assert.Equal(t, 1, j.PendingCount())
}

func TestTakeGiveImageRoundTrips(t *testing.T) {
	img := image.New(4)
	j := journal.New()
	j.Init(img)
	a := Build(img, j, slog.Default(), "test", "")

	a.TakeImage()
	a.GiveImage()
}

func TestPluginLoggerExtractsFourEntryPoints(t *testing.T) {
	img := image.New(1)
	j := journal.New()
	j.Init(img)
	a := Build(img, j, slog.Default(), "test", "")
	pl := NewPluginLogger(a)

	pl.Info("hello")
	pl.Debug("hello")
	pl.Warn("hello")
	pl.Error("hello")
}
