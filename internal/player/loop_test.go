package player

import (
	"context"
	"testing"
	"time"

	"github.com/llehouerou/qobuz-player-go/internal/downloader"
	"github.com/llehouerou/qobuz-player-go/internal/notification"
	"github.com/llehouerou/qobuz-player-go/internal/observer"
	"github.com/llehouerou/qobuz-player-go/internal/remote"
	"github.com/llehouerou/qobuz-player-go/internal/sink"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// fakeSink is a sinkPort test double that never touches real audio
// hardware: QueryTrack always reports Queued immediately, and tests
// drive track completion explicitly via finish().
type fakeSink struct {
	queryErr   error
	nextResult sink.QueryResult
	paths      []string
	playCalls  int
	pauseCalls int
	clearCalls int
	position   time.Duration
	volume     float64
	empty      bool

	finishedWatch *observer.Watch[int]
	finishedSeq   int
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		nextResult:    sink.Queued,
		empty:         true,
		finishedWatch: observer.NewWatch(0),
	}
}

func (f *fakeSink) QueryTrack(path string) (sink.QueryResult, error) {
	if f.queryErr != nil {
		return 0, f.queryErr
	}
	f.paths = append(f.paths, path)
	f.empty = false
	return f.nextResult, nil
}
func (f *fakeSink) Play()  { f.playCalls++ }
func (f *fakeSink) Pause() { f.pauseCalls++ }
func (f *fakeSink) Seek(d time.Duration) error {
	f.position = d
	return nil
}
func (f *fakeSink) Clear() { f.clearCalls++; f.empty = true }
func (f *fakeSink) ClearQueue() {}
func (f *fakeSink) Position() time.Duration { return f.position }
func (f *fakeSink) SyncVolume(level float64) { f.volume = level }
func (f *fakeSink) TrackFinished() *observer.Subscription[int] { return f.finishedWatch.Subscribe() }
func (f *fakeSink) IsEmpty() bool { return f.empty }

func (f *fakeSink) finish() {
	f.finishedSeq++
	f.finishedWatch.Send(f.finishedSeq)
}

// fakeDownloader is a downloaderPort test double: EnsureTrackIsDownloaded
// reports ready immediately using the track's url as the path, unless the
// test has pre-armed it to report not-ready for a given track id.
type fakeDownloader struct {
	notReady map[uint32]bool
	doneWatch *observer.Watch[downloader.Event]
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{
		notReady: make(map[uint32]bool),
		doneWatch: observer.NewWatch(downloader.Event{}),
	}
}

func (f *fakeDownloader) EnsureTrackIsDownloaded(_ context.Context, url string, track tracklist.Track) (string, bool) {
	if f.notReady[track.ID] {
		return "", false
	}
	return "/cache/" + url, true
}
func (f *fakeDownloader) Subscribe() *observer.Subscription[downloader.Event] {
	return f.doneWatch.Subscribe()
}

// fakeStore is a Store test double backed by plain fields.
type fakeStore struct {
	volume    float32
	tracklist *tracklist.Tracklist
}

func (s *fakeStore) SetVolume(v float32) error { s.volume = v; return nil }
func (s *fakeStore) SetTracklist(tl *tracklist.Tracklist) error {
	s.tracklist = tl
	return nil
}
func (s *fakeStore) GetTracklist() (*tracklist.Tracklist, error) { return s.tracklist, nil }

func newTestLoop() (*Loop, *fakeSink, *fakeDownloader, remote.Client) {
	snk := newFakeSink()
	dl := newFakeDownloader()
	client := remote.NewMockClient()
	l := New(client, snk, dl, &fakeStore{}, notification.New(), Options{})
	return l, snk, dl, client
}

func mockTrack(client remote.Client, id uint32) {
	mc := client.(*remote.MockClient)
	mc.Tracks[id] = tracklist.Track{ID: id, Title: "t", DurationSeconds: 100, Available: true}
	mc.TrackURLs[id] = "track.flac"
}

func TestPlayTrack_QueriesAndPlaysImmediately(t *testing.T) {
	l, snk, _, client := newTestLoop()
	mockTrack(client, 7)

	l.handleCommand(context.Background(), NewTrackCommand(7))

	if len(snk.paths) != 1 {
		t.Fatalf("expected one QueryTrack call, got %d", len(snk.paths))
	}
	if snk.playCalls != 1 {
		t.Fatalf("expected Play() called once, got %d", snk.playCalls)
	}
	if l.targetStatus != Playing {
		t.Fatalf("targetStatus = %v, want Playing", l.targetStatus)
	}
}

func TestPlayTrack_BufferingWhenNotReady(t *testing.T) {
	l, snk, dl, client := newTestLoop()
	mockTrack(client, 7)
	dl.notReady[7] = true

	l.handleCommand(context.Background(), NewTrackCommand(7))

	if len(snk.paths) != 0 {
		t.Fatalf("expected no QueryTrack call while buffering, got %d", len(snk.paths))
	}
	if l.targetStatus != Buffering {
		t.Fatalf("targetStatus = %v, want Buffering", l.targetStatus)
	}
}

func TestPlayPause_TogglesTargetStatus(t *testing.T) {
	l, snk, _, client := newTestLoop()
	mockTrack(client, 1)
	l.handleCommand(context.Background(), NewTrackCommand(1))

	l.handleCommand(context.Background(), NewPlayPauseCommand())
	if l.targetStatus != Paused {
		t.Fatalf("targetStatus = %v, want Paused", l.targetStatus)
	}
	if snk.pauseCalls != 1 {
		t.Fatalf("expected Pause() called once, got %d", snk.pauseCalls)
	}

	l.handleCommand(context.Background(), NewPlayPauseCommand())
	if l.targetStatus != Playing {
		t.Fatalf("targetStatus = %v, want Playing", l.targetStatus)
	}
}

func TestHandleTrackFinished_AdvancesAndQueriesNext(t *testing.T) {
	l, snk, _, client := newTestLoop()
	mockTrack(client, 1)
	mockTrack(client, 2)
	l.startTracklist(context.Background(), tracklist.NewTracksType(), []tracklist.Track{
		{ID: 1, DurationSeconds: 100, Available: true},
		{ID: 2, DurationSeconds: 100, Available: true},
	}, 0)
	snk.paths = nil

	l.handleTrackFinished(context.Background())

	if l.tracklist.CurrentPosition() != 1 {
		t.Fatalf("CurrentPosition() = %d, want 1", l.tracklist.CurrentPosition())
	}
	if len(snk.paths) != 1 {
		t.Fatalf("expected queryTrack for the new current track, got %d calls", len(snk.paths))
	}
}

func TestHandleTrackFinished_AlreadyQueuedSkipsRequery(t *testing.T) {
	l, snk, _, client := newTestLoop()
	mockTrack(client, 1)
	mockTrack(client, 2)
	l.startTracklist(context.Background(), tracklist.NewTracksType(), []tracklist.Track{
		{ID: 1, DurationSeconds: 100, Available: true},
		{ID: 2, DurationSeconds: 100, Available: true},
	}, 0)
	snk.paths = nil
	l.nextTrackInSinkQueue = true

	l.handleTrackFinished(context.Background())

	if snk.clearCalls != 0 {
		t.Fatalf("expected no Clear() when next track already queued, got %d", snk.clearCalls)
	}
	if len(snk.paths) != 0 {
		t.Fatalf("expected no re-query when next track already queued, got %d", len(snk.paths))
	}
}

func TestHandleTrackFinished_NoNextPausesAndResets(t *testing.T) {
	l, snk, _, client := newTestLoop()
	mockTrack(client, 1)
	l.startTracklist(context.Background(), tracklist.NewTracksType(), []tracklist.Track{
		{ID: 1, DurationSeconds: 100, Available: true},
	}, 0)

	l.handleTrackFinished(context.Background())

	if l.targetStatus != Paused {
		t.Fatalf("targetStatus = %v, want Paused", l.targetStatus)
	}
	if snk.pauseCalls != 1 {
		t.Fatalf("expected Pause() called once, got %d", snk.pauseCalls)
	}
	if l.tracklist.CurrentPosition() != 0 {
		t.Fatalf("CurrentPosition() after Reset = %d, want 0", l.tracklist.CurrentPosition())
	}
}

func TestSkipToPosition_BackwardPastOneSecondRestartsCurrent(t *testing.T) {
	l, snk, _, client := newTestLoop()
	mockTrack(client, 1)
	mockTrack(client, 2)
	l.startTracklist(context.Background(), tracklist.NewTracksType(), []tracklist.Track{
		{ID: 1, DurationSeconds: 100, Available: true},
		{ID: 2, DurationSeconds: 100, Available: true},
	}, 1)
	snk.paths = nil
	snk.position = 5 * time.Second

	l.skipToPosition(context.Background(), 0, false)

	if len(snk.paths) != 0 {
		t.Fatalf("expected restart-current to re-seek, not requery, got %d calls", len(snk.paths))
	}
	if l.tracklist.CurrentPosition() != 1 {
		t.Fatalf("CurrentPosition() = %d, want 1 (restart, not actual skip)", l.tracklist.CurrentPosition())
	}
	if snk.position != 0 {
		t.Fatalf("sink position = %v, want 0 after restart seek", snk.position)
	}
}

func TestSkipToPosition_BackwardNearStartActuallySkips(t *testing.T) {
	l, snk, _, client := newTestLoop()
	mockTrack(client, 1)
	mockTrack(client, 2)
	l.startTracklist(context.Background(), tracklist.NewTracksType(), []tracklist.Track{
		{ID: 1, DurationSeconds: 100, Available: true},
		{ID: 2, DurationSeconds: 100, Available: true},
	}, 1)
	snk.paths = nil
	snk.position = 500 * time.Millisecond

	l.skipToPosition(context.Background(), 0, false)

	if l.tracklist.CurrentPosition() != 0 {
		t.Fatalf("CurrentPosition() = %d, want 0 (actual skip)", l.tracklist.CurrentPosition())
	}
	if len(snk.paths) != 1 {
		t.Fatalf("expected one requery on actual skip, got %d", len(snk.paths))
	}
}

func TestSkipToPosition_ForceBypassesRestartCheck(t *testing.T) {
	l, snk, _, client := newTestLoop()
	mockTrack(client, 1)
	l.startTracklist(context.Background(), tracklist.NewTracksType(), []tracklist.Track{
		{ID: 1, DurationSeconds: 100, Available: true},
	}, 0)
	snk.paths = nil
	snk.position = 5 * time.Second

	l.skipToPosition(context.Background(), 0, true)

	if snk.clearCalls == 0 {
		t.Fatal("expected Clear() on forced restart")
	}
	if len(snk.paths) != 1 {
		t.Fatalf("expected one requery on forced restart, got %d", len(snk.paths))
	}
}

func TestSetVolume_ClampsAndPersists(t *testing.T) {
	l, snk, _, _ := newTestLoop()
	store := l.store.(*fakeStore)

	l.setVolume(1.5)
	if snk.volume != 1 {
		t.Fatalf("sink volume = %v, want 1 (clamped)", snk.volume)
	}
	if store.volume != 1 {
		t.Fatalf("store.volume = %v, want 1 (clamped)", store.volume)
	}

	l.setVolume(-1)
	if store.volume != 0 {
		t.Fatalf("store.volume = %v, want 0 (clamped)", store.volume)
	}
}

func TestNewQueue_BuildsTracklistFromRemoteIDs(t *testing.T) {
	l, _, _, client := newTestLoop()
	mockTrack(client, 1)
	mockTrack(client, 2)

	l.newQueue(context.Background(), []NewQueueItem{
		{TrackID: 1, QueueID: 10},
		{TrackID: 2, QueueID: 20},
	}, false)

	q := l.tracklist.Queue()
	if len(q) != 2 {
		t.Fatalf("queue len = %d, want 2", len(q))
	}
	if q[0].ID != 10 || q[1].ID != 20 {
		t.Fatalf("queue ids = %d,%d want 10,20", q[0].ID, q[1].ID)
	}
}

func TestClearQueue_EmptiesAndStops(t *testing.T) {
	l, snk, _, client := newTestLoop()
	mockTrack(client, 1)
	l.handleCommand(context.Background(), NewTrackCommand(1))

	l.clearQueue()

	if l.tracklist.Total() != 0 {
		t.Fatalf("Total() = %d, want 0 after ClearQueue", l.tracklist.Total())
	}
	if l.targetStatus != Paused {
		t.Fatalf("targetStatus = %v, want Paused", l.targetStatus)
	}
	if snk.clearCalls == 0 {
		t.Fatal("expected sink Clear() on ClearQueue")
	}
}

func TestPlayAlbum_IndexRemapsPastUnavailableTracks(t *testing.T) {
	l, snk, _, client := newTestLoop()
	mc := client.(*remote.MockClient)
	mc.Albums["a1"] = remote.Album{
		ID:    "a1",
		Title: "Album",
		Tracks: []tracklist.Track{
			{ID: 1, Title: "t0", DurationSeconds: 100, Available: true},
			{ID: 2, Title: "t1", DurationSeconds: 100, Available: false},
			{ID: 3, Title: "t2", DurationSeconds: 100, Available: true},
		},
	}
	mc.TrackURLs[1] = "t0.flac"
	mc.TrackURLs[3] = "t2.flac"

	l.handleCommand(context.Background(), NewAlbumCommand("a1", 2))

	if got := l.tracklist.Total(); got != 2 {
		t.Fatalf("Total() = %d, want 2 (unavailable track dropped)", got)
	}
	current := l.tracklist.CurrentTrack()
	if current == nil || current.ID != 3 {
		t.Fatalf("CurrentTrack() = %+v, want track id 3 (t2)", current)
	}
	if len(snk.paths) != 1 || snk.paths[0] != "/cache/t2.flac" {
		t.Fatalf("queried path = %v, want t2's cached path", snk.paths)
	}
}

func TestBroadcastTracklist_SnapshotNotAliasedToLiveQueue(t *testing.T) {
	l, _, _, client := newTestLoop()
	mockTrack(client, 1)
	mockTrack(client, 2)
	l.startTracklist(context.Background(), tracklist.NewTracksType(), []tracklist.Track{
		{ID: 1, DurationSeconds: 100, Available: true},
		{ID: 2, DurationSeconds: 100, Available: true},
	}, 0)

	sub := l.Tracklist()
	snap := sub.Borrow()
	if snap.Queue[0].Track.Status != tracklist.StatusPlaying {
		t.Fatalf("snapshot status = %v, want Playing", snap.Queue[0].Track.Status)
	}

	l.skipToPosition(context.Background(), 1, false)

	if snap.Queue[0].Track.Status != tracklist.StatusPlaying {
		t.Fatalf("earlier snapshot mutated: status = %v", snap.Queue[0].Track.Status)
	}
}
