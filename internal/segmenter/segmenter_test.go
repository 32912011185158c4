package segmenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses whitespace runs",
			in:   "revenue  grew\t\tby\n\n12 percent",
			want: "revenue grew by 12 percent",
		},
		{
			name: "strips non printable ascii",
			in:   "margin expanded by 5%—driven by cloud",
			want: "margin expanded by 5%driven by cloud",
		},
		{
			name: "trims leading and trailing space",
			in:   "   guidance raised   ",
			want: "guidance raised",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "whitespace only input",
			in:   " \n\t ",
			want: "",
		},
		{
			name: "non ascii only input",
			in:   "营收增长",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSegmentWindowPlacement(t *testing.T) {
	text := strings.Repeat("a", 5000)

	chunks, err := Segment(text, 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 6)

	// 窗口起点按 size-overlap=800 前进，最后一个窗口触及末尾后停止
	for i := 0; i < 5; i++ {
		assert.Len(t, chunks[i], 1000, "chunk %d", i)
	}
	assert.Len(t, chunks[5], 1000)

	// 重建原文：每个后续分块去掉与前一块重叠的前 200 个字符
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		rebuilt.WriteString(c[200:])
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSegmentShortText(t *testing.T) {
	chunks, err := Segment("short text", 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSegmentExactWindow(t *testing.T) {
	text := strings.Repeat("x", 1000)
	chunks, err := Segment(text, 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSegmentEmptyText(t *testing.T) {
	chunks, err := Segment("", 1000, 200)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSegmentInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "overlap equals size", size: 100, overlap: 100},
		{name: "overlap exceeds size", size: 100, overlap: 150},
		{name: "zero size", size: 0, overlap: 0},
		{name: "negative size", size: -1, overlap: 0},
		{name: "negative overlap", size: 100, overlap: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Segment(strings.Repeat("a", 500), tt.size, tt.overlap)
			require.Error(t, err)
			assert.Nil(t, chunks)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.size, cfgErr.Size)
			assert.Equal(t, tt.overlap, cfgErr.Overlap)
		})
	}
}

func TestSegmentCoversEveryPosition(t *testing.T) {
	text := strings.Repeat("b", 2718)
	chunks, err := Segment(text, 300, 50)
	require.NoError(t, err)

	covered := 0
	for i, c := range chunks {
		if i == 0 {
			covered += len(c)
		} else {
			covered += len(c) - 50
		}
	}
	assert.Equal(t, len(text), covered)
}
