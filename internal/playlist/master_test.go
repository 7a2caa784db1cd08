package playlist

import (
	"strings"
	"testing"

	"github.com/grafov/m3u8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVariants = []OutputVariant{
	{Name: "lo", Bitrate: 80000, FrameRate: 16, KeyframeInterval: 8, Resolution: "360x360"},
	{Name: "hi", Bitrate: 480000, FrameRate: 24, KeyframeInterval: 12, Resolution: "480x480"},
	{Name: "audio", SkipVideo: true},
}

func TestBandwidth(t *testing.T) {
	assert.Equal(t, 40000+128000, Bandwidth(testVariants[0], 40000))
	assert.Equal(t, 40000+768000, Bandwidth(testVariants[1], 40000))
	assert.Equal(t, AudioOnlyBandwidth, Bandwidth(testVariants[2], 40000))
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "12345_live.m3u8", MasterFileName("12345", Live))
	assert.Equal(t, "12345_replay.m3u8", MasterFileName("12345", Replay))
	assert.Equal(t, "12345_hi_live.m3u8", VariantFileName("12345", "hi", Live))
	assert.Equal(t, "hi/12345_hi_replay.m3u8", VariantPath("12345", "hi", Replay))
	assert.Equal(t, "fileSequence42.ts", SegmentURI(42))
}

func TestBuildMasterPlaylist(t *testing.T) {
	want := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-STREAM-INF:BANDWIDTH=168000",
		"lo/12345_lo_live.m3u8",
		"#EXT-X-STREAM-INF:BANDWIDTH=808000",
		"hi/12345_hi_live.m3u8",
		"#EXT-X-STREAM-INF:BANDWIDTH=64000",
		"audio/12345_audio_live.m3u8",
	}, "\n") + "\n"
	assert.Equal(t, want, BuildMasterPlaylist("12345", Live, testVariants, 40000))
}

func TestBuildMasterPlaylist_decodes(t *testing.T) {
	body := BuildMasterPlaylist("12345", Replay, testVariants, 40000)

	p, listType, err := m3u8.DecodeFrom(strings.NewReader(body), true)
	require.NoError(t, err)
	require.Equal(t, m3u8.MASTER, listType)

	master := p.(*m3u8.MasterPlaylist)
	require.Len(t, master.Variants, 3)
	assert.Equal(t, uint32(808000), master.Variants[1].Bandwidth)
	assert.Equal(t, "audio/12345_audio_replay.m3u8", master.Variants[2].URI)
}
