package downloader

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytfetch/ytfetch/internal/config"
	"github.com/ytfetch/ytfetch/internal/cookies"
	"github.com/ytfetch/ytfetch/internal/domain"
	"github.com/ytfetch/ytfetch/internal/faults"
	"github.com/ytfetch/ytfetch/internal/ratelimit"
	"github.com/ytfetch/ytfetch/internal/storage"
	"github.com/ytfetch/ytfetch/internal/ytdlp"
)

// fakeTransfer scripts per-call outcomes: an error, or a written artifact
// of payload bytes at the output template with the extension substituted.
type fakeTransfer struct {
	outcomes  []transferOutcome
	exprs     []string
	templates []string
	progress  []ytdlp.Progress
}

type transferOutcome struct {
	err     error
	ext     string
	payload int
}

func (f *fakeTransfer) Download(ctx context.Context, url, formatExpr, outputTemplate string, opts ytdlp.Options, onProgress func(ytdlp.Progress)) error {
	f.exprs = append(f.exprs, formatExpr)
	f.templates = append(f.templates, outputTemplate)

	var out transferOutcome
	if len(f.outcomes) > 0 {
		out = f.outcomes[0]
		f.outcomes = f.outcomes[1:]
	} else {
		out = transferOutcome{ext: "mp4", payload: 64}
	}
	if out.err != nil {
		return out.err
	}

	for _, p := range f.progress {
		onProgress(p)
	}

	ext := out.ext
	if ext == "" {
		ext = "mp4"
	}
	path := strings.ReplaceAll(outputTemplate, "%(ext)s", ext)
	return os.WriteFile(path, make([]byte, out.payload), 0o644)
}

func testMeta() *domain.VideoMetadata {
	return &domain.VideoMetadata{
		Title:    "Test Video",
		Duration: 60,
		Formats: []domain.FormatDescriptor{
			{ID: "137", Resolution: "1080p", Height: 1080, HasAudio: false},
			{ID: "18", Resolution: "360p", Height: 360, HasAudio: true},
		},
	}
}

func newTestExecutor(t *testing.T, backend DownloadBackend, maxFileSize int64) *Executor {
	t.Helper()
	store, err := cookies.NewStore(t.TempDir())
	require.NoError(t, err)
	artifacts, err := storage.NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	cfg := &config.Config{MaxFileSize: maxFileSize, UserAgent: "test-agent"}
	return New(backend, ratelimit.New(0), store, artifacts, cfg)
}

func bestRequest(meta *domain.VideoMetadata) Request {
	return Request{
		Ref:      domain.NewReference("https://youtu.be/x"),
		Selector: SelectorBest,
		UserID:   1,
		Meta:     meta,
	}
}

func TestExecuteSuccess(t *testing.T) {
	backend := &fakeTransfer{}
	exec := newTestExecutor(t, backend, 1<<20)

	res, err := exec.Execute(context.Background(), bestRequest(testMeta()), nil)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.FileExists(t, res.FilePath)
	assert.Equal(t, int64(64), res.FileSize)
	assert.Equal(t, "Test Video.mp4", res.FileName)
	assert.Equal(t, "1080p", res.ObtainedQuality)
	require.Len(t, backend.exprs, 1)
	assert.Equal(t, "bestvideo[height<=1080]+bestaudio", backend.exprs[0])
}

func TestExecutePercentTitleKeepsTemplateClean(t *testing.T) {
	backend := &fakeTransfer{}
	exec := newTestExecutor(t, backend, 1<<20)

	meta := testMeta()
	meta.Title = "50% off everything"
	res, err := exec.Execute(context.Background(), bestRequest(meta), nil)
	require.NoError(t, err)

	// Only the %(ext)s token may reach the backend; any other % would be
	// interpolated by its output templating.
	require.Len(t, backend.templates, 1)
	stripped := strings.ReplaceAll(backend.templates[0], "%(ext)s", "")
	assert.NotContains(t, stripped, "%")

	assert.FileExists(t, res.FilePath)
	assert.Equal(t, "50_ off everything.mp4", res.FileName)
}

func TestExecuteRequiresMetadata(t *testing.T) {
	exec := newTestExecutor(t, &fakeTransfer{}, 1<<20)

	req := bestRequest(nil)
	_, err := exec.Execute(context.Background(), req, nil)

	require.Error(t, err)
	kind, _ := faults.KindOf(err)
	assert.Equal(t, faults.KindInvalidInput, kind)
}

func TestExecuteProgressMonotonicWithSingleFinish(t *testing.T) {
	backend := &fakeTransfer{progress: []ytdlp.Progress{
		{Percent: 10}, {Percent: 55}, {Percent: 30}, {Percent: 90},
	}}
	exec := newTestExecutor(t, backend, 1<<20)

	var events []domain.ProgressEvent
	_, err := exec.Execute(context.Background(), bestRequest(testMeta()), func(e domain.ProgressEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)

	// The regressing 30% is swallowed; the stream ends at the finished event.
	require.Len(t, events, 4)
	last := 0.0
	for _, e := range events {
		assert.GreaterOrEqual(t, e.Percent, last)
		last = e.Percent
	}
	finished := 0
	for _, e := range events {
		if e.Phase == domain.PhaseFinished {
			finished++
			assert.Equal(t, float64(100), e.Percent)
		}
	}
	assert.Equal(t, 1, finished)
	assert.Equal(t, domain.PhaseFinished, events[len(events)-1].Phase)
}

func TestExecuteBestChainDegrades(t *testing.T) {
	rejection := faults.New(faults.KindTransient, "ERROR: Requested format is not available")
	backend := &fakeTransfer{outcomes: []transferOutcome{
		{err: rejection},
		{err: rejection},
		{ext: "mp4", payload: 32},
	}}
	exec := newTestExecutor(t, backend, 1<<20)

	res, err := exec.Execute(context.Background(), bestRequest(testMeta()), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"bestvideo[height<=1080]+bestaudio",
		"bestvideo+bestaudio",
		"best",
	}, backend.exprs)
	assert.Equal(t, "best", res.ObtainedQuality)
}

func TestExecuteSpecificFormatFallsBackOnce(t *testing.T) {
	backend := &fakeTransfer{outcomes: []transferOutcome{
		{err: faults.New(faults.KindTransient, "requested format is not available")},
		{ext: "mp4", payload: 32},
	}}
	exec := newTestExecutor(t, backend, 1<<20)

	req := bestRequest(testMeta())
	req.Selector = "137"
	res, err := exec.Execute(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"137+bestaudio/137", "18"}, backend.exprs)
	assert.Equal(t, "360p (fallback)", res.ObtainedQuality)
}

func TestExecuteFallbackFormatHasNoSubstitute(t *testing.T) {
	rejection := faults.New(faults.KindTransient, "requested format is not available")
	backend := &fakeTransfer{outcomes: []transferOutcome{{err: rejection}}}
	exec := newTestExecutor(t, backend, 1<<20)

	req := bestRequest(testMeta())
	req.Selector = "18"
	_, err := exec.Execute(context.Background(), req, nil)

	require.Error(t, err)
	assert.Equal(t, []string{"18+bestaudio/18"}, backend.exprs)
}

func TestExecuteNonFormatErrorStopsChain(t *testing.T) {
	authErr := faults.New(faults.KindAuthRequired, "sign in to confirm you're not a bot")
	backend := &fakeTransfer{outcomes: []transferOutcome{{err: authErr}}}
	exec := newTestExecutor(t, backend, 1<<20)

	_, err := exec.Execute(context.Background(), bestRequest(testMeta()), nil)

	require.ErrorIs(t, err, authErr)
	assert.Len(t, backend.exprs, 1, "auth failures must not advance the format chain")
}

func TestExecuteOversizeArtifact(t *testing.T) {
	backend := &fakeTransfer{outcomes: []transferOutcome{{ext: "mp4", payload: 2048}}}
	exec := newTestExecutor(t, backend, 1024)

	_, err := exec.Execute(context.Background(), bestRequest(testMeta()), nil)

	require.Error(t, err)
	kind, _ := faults.KindOf(err)
	assert.Equal(t, faults.KindResourceExceeded, kind)
}

func TestExecuteLocatesAlternateExtension(t *testing.T) {
	backend := &fakeTransfer{outcomes: []transferOutcome{{ext: "mkv", payload: 16}}}
	exec := newTestExecutor(t, backend, 1<<20)

	res, err := exec.Execute(context.Background(), bestRequest(testMeta()), nil)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(res.FilePath, ".mkv"))
	assert.Equal(t, "Test Video.mkv", res.FileName)
}

func TestExecuteMissingArtifact(t *testing.T) {
	// Backend claims success for every candidate but never writes a file.
	backend := &fakeTransfer{outcomes: []transferOutcome{
		{ext: "none", payload: 0}, {ext: "none"}, {ext: "none"}, {ext: "none"},
	}}
	exec := newTestExecutor(t, backend, 1<<20)

	_, err := exec.Execute(context.Background(), bestRequest(testMeta()), nil)

	require.Error(t, err)
	kind, _ := faults.KindOf(err)
	assert.Equal(t, faults.KindNotFound, kind)
}

func TestExecuteDimensionsFromResolvedMetadata(t *testing.T) {
	backend := &fakeTransfer{}
	exec := newTestExecutor(t, backend, 1<<20)

	meta := testMeta()
	meta.Width, meta.Height = 1920, 1080
	res, err := exec.Execute(context.Background(), bestRequest(meta), nil)
	require.NoError(t, err)

	assert.Equal(t, 1920, res.Width)
	assert.Equal(t, 1080, res.Height)
}

func TestExecuteDimensionsKeepSourceAspectRatio(t *testing.T) {
	backend := &fakeTransfer{}
	exec := newTestExecutor(t, backend, 1<<20)

	// A vertical source selected at a lower format height must stay vertical.
	meta := testMeta()
	meta.Width, meta.Height = 1080, 1920
	meta.Formats = []domain.FormatDescriptor{
		{ID: "134", Resolution: "480p", Height: 480, HasAudio: false},
	}

	req := bestRequest(meta)
	req.Selector = "134"
	res, err := exec.Execute(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 480, res.Height)
	assert.Equal(t, 270, res.Width)
	assert.False(t, res.HasAudio)
}

func TestExecuteDimensionsFromSelectedFormat(t *testing.T) {
	backend := &fakeTransfer{}
	exec := newTestExecutor(t, backend, 1<<20)

	req := bestRequest(testMeta())
	req.Selector = "18"
	res, err := exec.Execute(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 360, res.Height)
	assert.Equal(t, 640, res.Width)
	assert.True(t, res.HasAudio)
}
