package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

const (
	// DefaultRestartThreshold is the elapsed time after which Retreat restarts the current track.
	DefaultRestartThreshold = 5 * time.Second

	// SingleEntrySource is the source name of a tracklist started from one entry.
	SingleEntrySource = "Track"
)

// CoordinatorConfig configures the queue coordinator.
type CoordinatorConfig struct {
	RestartThreshold time.Duration

	// Rand drives shuffling; nil uses the global source
	Rand *rand.Rand
}

// QueueCoordinator owns the tracklist, the manual queue and shuffle state, and
// decides what plays next.
//
// All state lives on the owner loop. Public methods marshal onto the loop and
// block until the operation is applied. Every applied mutation publishes a
// QueueChangedEvent; rejected operations publish a NoticeEvent and leave the
// state untouched.
//
// Manual queue entries play out of band: while one is active the tracklist
// position stays where it was, and the next tracklist entry follows once the
// manual queue is empty.
type QueueCoordinator struct {
	// Dependencies (injected)
	logger  *slog.Logger
	loop    *OwnerLoop
	engine  *PlaybackEngine
	entries ports.EntryRepository
	history ports.HistoryRepository
	bus     ports.EventBus

	restartThreshold time.Duration
	rng              *rand.Rand

	// State (owner loop only)
	tracklist        domain.TracklistState
	manual           []domain.QueueEntry
	activeFromManual bool
	// replayAnchor means the entry at CurrentIndex has not been played yet,
	// so the next advance plays it instead of its successor.
	replayAnchor bool
	nextSlot     uint64

	// Event subscriptions
	completedSub domain.SubscriptionID
	failedSub    domain.SubscriptionID
}

// NewQueueCoordinator creates a new queue coordinator.
// The bus must deliver events synchronously so that engine events are handled on the loop.
func NewQueueCoordinator(
	logger *slog.Logger,
	loop *OwnerLoop,
	engine *PlaybackEngine,
	entries ports.EntryRepository,
	history ports.HistoryRepository,
	bus ports.EventBus,
	cfg CoordinatorConfig,
) *QueueCoordinator {
	if cfg.RestartThreshold <= 0 {
		cfg.RestartThreshold = DefaultRestartThreshold
	}

	c := &QueueCoordinator{
		logger:           logger,
		loop:             loop,
		engine:           engine,
		entries:          entries,
		history:          history,
		bus:              bus,
		restartThreshold: cfg.RestartThreshold,
		rng:              cfg.Rand,
	}

	// Engine signals arrive on the loop because the engine publishes from loop tasks.
	c.completedSub = bus.Subscribe(domain.EventTrackCompleted, c.handleTrackCompleted)
	c.failedSub = bus.Subscribe(domain.EventTrackError, c.handleTrackError)

	return c
}

// StartQueue replaces the tracklist with entries and plays start.
// The manual queue is cleared.
func (c *QueueCoordinator) StartQueue(start domain.QueueEntry, entries []domain.QueueEntry, sourceName string) error {
	return c.exec("StartQueue", func() error {
		return c.startQueue(start, entries, sourceName, false, true)
	})
}

// StartShuffledQueue replaces the tracklist with a random order of entries
// that begins with start, and plays start. The manual queue is cleared.
func (c *QueueCoordinator) StartShuffledQueue(start domain.QueueEntry, entries []domain.QueueEntry, sourceName string) error {
	return c.exec("StartShuffledQueue", func() error {
		return c.startQueue(start, entries, sourceName, true, true)
	})
}

// StartCollection starts a stored collection. An empty startTrackID starts at
// the first entry, or at a random one when shuffling.
func (c *QueueCoordinator) StartCollection(ctx context.Context, key, startTrackID string, shuffle bool) error {
	entries, err := c.entries.FetchEntries(key)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return domain.NewServiceError("QueueCoordinator", "StartCollection", "collection "+key+" is empty", domain.ErrEntryNotFound)
	}
	name := c.collectionName(key)

	var start domain.QueueEntry
	switch {
	case startTrackID != "":
		i := slices.IndexFunc(entries, func(e domain.QueueEntry) bool { return e.TrackID == startTrackID })
		if i < 0 {
			return domain.ErrEntryNotFound
		}
		start = entries[i]
	case shuffle:
		start = entries[c.intN(len(entries))]
	default:
		start = entries[0]
	}

	return c.execCtx(ctx, "StartCollection", func() error {
		return c.startQueue(start, entries, name, shuffle, true)
	})
}

// Advance skips to the next entry: the manual queue head first, then the
// tracklist successor. Past the end of the tracklist playback stops.
func (c *QueueCoordinator) Advance() error {
	return c.exec("Advance", func() error { return c.advance(true) })
}

// Retreat goes back one entry, or restarts the current one when it has
// played longer than the restart threshold. With nothing loaded it does nothing.
func (c *QueueCoordinator) Retreat() error {
	return c.exec("Retreat", c.retreat)
}

// SkipToIndex plays tracklist entry i.
func (c *QueueCoordinator) SkipToIndex(i int) error {
	return c.exec("SkipToIndex", func() error {
		if i < 0 || i >= c.tracklist.Len() {
			return domain.ErrInvalidIndex
		}
		c.playIndex(i, true)
		return nil
	})
}

// SkipToManualQueueEntry drops the manual queue entries before i and plays entry i.
func (c *QueueCoordinator) SkipToManualQueueEntry(i int) error {
	return c.exec("SkipToManualQueueEntry", func() error {
		if i < 0 || i >= len(c.manual) {
			return domain.ErrInvalidIndex
		}
		entry := c.manual[i]
		c.manual = slices.Clone(c.manual[i+1:])
		c.playManual(entry, true)
		return nil
	})
}

// Shuffle randomises the order of the entries after the current one.
// Entries already played and the current entry keep their positions.
func (c *QueueCoordinator) Shuffle() error {
	return c.exec("Shuffle", func() error {
		if c.tracklist.Len() == 0 {
			return domain.ErrNoActiveEntry
		}
		if c.tracklist.IsShuffled {
			return domain.ErrAlreadyShuffled
		}

		c.tracklist.OriginalOrder = slices.Clone(c.tracklist.OrderedEntries)
		c.shuffleEntries(c.tracklist.OrderedEntries[c.tracklist.Index()+1:])
		c.tracklist.IsShuffled = true

		c.bus.Publish(domain.NewShuffleToggledEvent(true))
		return nil
	})
}

// Unshuffle restores the original order and moves the current position to
// wherever the current entry sits in it.
func (c *QueueCoordinator) Unshuffle() error {
	return c.exec("Unshuffle", func() error {
		if !c.tracklist.IsShuffled {
			return domain.ErrNotShuffled
		}

		current := c.tracklist.Current()
		c.tracklist.OrderedEntries = c.tracklist.OriginalOrder
		c.tracklist.OriginalOrder = nil
		c.tracklist.IsShuffled = false

		if current != nil {
			i := slices.IndexFunc(c.tracklist.OrderedEntries, current.SameOccurrence)
			if i < 0 {
				i = 0
			}
			c.tracklist.CurrentIndex = &i
		}

		c.bus.Publish(domain.NewShuffleToggledEvent(false))
		return nil
	})
}

// EnqueueNext inserts entry at the head of the manual queue.
func (c *QueueCoordinator) EnqueueNext(entry domain.QueueEntry) error {
	return c.exec("EnqueueNext", func() error {
		entry.Slot = 0
		c.manual = slices.Insert(c.manual, 0, entry)
		return nil
	})
}

// EnqueueLast appends entry to the manual queue.
func (c *QueueCoordinator) EnqueueLast(entry domain.QueueEntry) error {
	return c.exec("EnqueueLast", func() error {
		entry.Slot = 0
		c.manual = append(c.manual, entry)
		return nil
	})
}

// RemoveFromManualQueue removes manual queue entry i.
func (c *QueueCoordinator) RemoveFromManualQueue(i int) error {
	return c.exec("RemoveFromManualQueue", func() error {
		if i < 0 || i >= len(c.manual) {
			return domain.ErrInvalidIndex
		}
		c.manual = slices.Delete(c.manual, i, i+1)
		return nil
	})
}

// ReorderManualQueue moves manual queue entry from to position to.
func (c *QueueCoordinator) ReorderManualQueue(from, to int) error {
	return c.exec("ReorderManualQueue", func() error {
		moved, err := move(c.manual, from, to)
		if err != nil {
			return err
		}
		c.manual = moved
		return nil
	})
}

// RemoveFromTracklist removes tracklist entry i.
//
// Removing the entry that is playing moves on to the entry that took its
// place, keeping play or pause. If it was the last entry, playback stops and
// the tracklist is reset.
func (c *QueueCoordinator) RemoveFromTracklist(i int) error {
	return c.exec("RemoveFromTracklist", func() error { return c.removeFromTracklist(i) })
}

// ReorderTracklist moves tracklist entry from to position to.
// The current position follows the entry that is playing.
func (c *QueueCoordinator) ReorderTracklist(from, to int) error {
	return c.exec("ReorderTracklist", func() error {
		moved, err := move(c.tracklist.OrderedEntries, from, to)
		if err != nil {
			return err
		}
		c.tracklist.OrderedEntries = moved

		idx := c.tracklist.Index()
		switch {
		case idx == from:
			idx = to
		case from < idx && to >= idx:
			idx--
		case from > idx && to <= idx:
			idx++
		}
		c.tracklist.CurrentIndex = &idx
		return nil
	})
}

// PlaySingleEntry plays entry as a one-item tracklist. The manual queue is kept.
func (c *QueueCoordinator) PlaySingleEntry(entry domain.QueueEntry) error {
	return c.exec("PlaySingleEntry", func() error {
		wasShuffled := c.tracklist.IsShuffled
		c.setTracklist(domain.TracklistState{
			SourceName:     SingleEntrySource,
			OrderedEntries: c.assignSlots([]domain.QueueEntry{entry}),
		}, 0)
		c.playIndex(0, true)

		if wasShuffled {
			c.bus.Publish(domain.NewShuffleToggledEvent(false))
		}
		return nil
	})
}

// Pause pauses playback.
func (c *QueueCoordinator) Pause() error {
	return c.exec("Pause", c.engine.Pause)
}

// Resume resumes playback.
func (c *QueueCoordinator) Resume() error {
	return c.exec("Resume", c.engine.Resume)
}

// TogglePlayPause pauses when playing and resumes otherwise.
func (c *QueueCoordinator) TogglePlayPause() error {
	return c.exec("TogglePlayPause", func() error {
		if c.engine.Session().IsPlaying {
			return c.engine.Pause()
		}
		return c.engine.Resume()
	})
}

// InterruptPlayback pauses if something is playing and reports whether it did.
func (c *QueueCoordinator) InterruptPlayback() (bool, error) {
	var paused bool
	err := c.exec("InterruptPlayback", func() error {
		if !c.engine.Session().IsPlaying {
			return nil
		}
		paused = true
		return c.engine.Pause()
	})
	return paused, err
}

// Stop stops playback and resets the tracklist. The manual queue is kept.
func (c *QueueCoordinator) Stop() error {
	return c.exec("Stop", func() error {
		c.reset()
		return nil
	})
}

// SeekFraction moves the playhead to fraction f in [0, 1] of the track.
func (c *QueueCoordinator) SeekFraction(f float64) error {
	return c.exec("SeekFraction", func() error { return c.engine.SeekFraction(f) })
}

// SeekTo moves the playhead to an absolute position.
func (c *QueueCoordinator) SeekTo(position time.Duration) error {
	return c.exec("SeekTo", func() error { return c.engine.SeekTo(position) })
}

// Snapshot returns the current observable state.
func (c *QueueCoordinator) Snapshot() (domain.QueueSnapshot, error) {
	var snapshot domain.QueueSnapshot
	err := c.loop.Do(context.Background(), func() { snapshot = c.snapshot() })
	return snapshot, err
}

// SaveQueue persists the tracklist identifiers and position.
func (c *QueueCoordinator) SaveQueue() error {
	var record domain.TracklistRecord
	if err := c.loop.Do(context.Background(), func() { record = c.record() }); err != nil {
		return err
	}
	if err := c.history.SaveTracklist(record); err != nil {
		return domain.NewServiceError("QueueCoordinator", "SaveQueue", "failed to save tracklist", err)
	}
	return nil
}

// RestoreQueue rebuilds the last saved tracklist and cues its current entry
// paused. Tracks that are no longer in the library are dropped.
// It reports whether anything was restored.
func (c *QueueCoordinator) RestoreQueue(ctx context.Context) (bool, error) {
	record, err := c.history.LoadTracklist()
	if err != nil {
		return false, domain.NewServiceError("QueueCoordinator", "RestoreQueue", "failed to load tracklist", err)
	}
	if record == nil || len(record.TrackIDs) == 0 {
		return false, nil
	}

	known, err := c.entries.LookupEntries(uniqueIDs(record.TrackIDs, record.OriginalTrackIDs))
	if err != nil {
		return false, domain.NewServiceError("QueueCoordinator", "RestoreQueue", "failed to look up entries", err)
	}
	byID := make(map[string]domain.QueueEntry, len(known))
	for _, e := range known {
		byID[e.TrackID] = e
	}

	restored := false
	err = c.execCtx(ctx, "RestoreQueue", func() error {
		state, index, ok := c.rebuild(record, byID)
		if !ok {
			return nil
		}
		c.setTracklist(state, index)
		c.playIndex(index, false)
		restored = true
		return nil
	})
	return restored, err
}

// Shutdown saves the tracklist and stops listening to engine events.
func (c *QueueCoordinator) Shutdown() error {
	err := c.SaveQueue()

	c.bus.Unsubscribe(c.completedSub)
	c.bus.Unsubscribe(c.failedSub)

	return err
}

// exec runs op on the loop and publishes the outcome.
func (c *QueueCoordinator) exec(op string, fn func() error) error {
	return c.execCtx(context.Background(), op, fn)
}

func (c *QueueCoordinator) execCtx(ctx context.Context, op string, fn func() error) error {
	var opErr error
	err := c.loop.Do(ctx, func() {
		opErr = fn()
		if opErr != nil {
			c.logger.Debug("queue operation rejected", slog.String("op", op), slog.Any("error", opErr))
			c.bus.Publish(domain.NewNoticeEvent(noticeFor(op, opErr), opErr))
			return
		}
		c.publish()
	})
	if err != nil {
		return err
	}
	return opErr
}

func (c *QueueCoordinator) startQueue(start domain.QueueEntry, entries []domain.QueueEntry, sourceName string, shuffle, autoplay bool) error {
	idx := slices.IndexFunc(entries, func(e domain.QueueEntry) bool { return e.TrackID == start.TrackID })
	if idx < 0 {
		return domain.ErrEntryNotFound
	}

	wasShuffled := c.tracklist.IsShuffled
	slotted := c.assignSlots(entries)
	state := domain.TracklistState{SourceName: sourceName, OrderedEntries: slotted}

	if shuffle {
		ordered := make([]domain.QueueEntry, 0, len(slotted))
		ordered = append(ordered, slotted[idx])
		ordered = append(ordered, slotted[:idx]...)
		ordered = append(ordered, slotted[idx+1:]...)
		c.shuffleEntries(ordered[1:])

		state.OriginalOrder = slotted
		state.OrderedEntries = ordered
		state.IsShuffled = true
		idx = 0
	}

	c.manual = nil
	c.setTracklist(state, idx)
	c.playIndex(idx, autoplay)

	c.logger.Info("queue started",
		slog.String("source", sourceName),
		slog.Int("entries", len(entries)),
		slog.Bool("shuffled", shuffle))

	if shuffle != wasShuffled {
		c.bus.Publish(domain.NewShuffleToggledEvent(shuffle))
	}
	return nil
}

func (c *QueueCoordinator) advance(autoplay bool) error {
	if len(c.manual) > 0 {
		head := c.manual[0]
		c.manual = slices.Clone(c.manual[1:])
		c.playManual(head, autoplay)
		return nil
	}

	if c.tracklist.Len() == 0 {
		if c.activeFromManual || c.engine.State() != domain.EngineIdle {
			c.reset()
			return nil
		}
		return domain.ErrNoActiveEntry
	}

	next := c.tracklist.Index() + 1
	if c.replayAnchor {
		next--
	}
	if next < c.tracklist.Len() {
		c.playIndex(next, autoplay)
		return nil
	}

	c.logger.Debug("end of tracklist", slog.String("source", c.tracklist.SourceName))
	c.reset()
	return nil
}

func (c *QueueCoordinator) retreat() error {
	if c.tracklist.Len() == 0 && !c.activeFromManual {
		return nil
	}
	if c.engine.Elapsed() > c.restartThreshold {
		return c.restart()
	}

	if c.activeFromManual {
		if c.tracklist.Len() == 0 {
			return c.restart()
		}
		c.playIndex(c.tracklist.Index(), true)
		return nil
	}

	if idx := c.tracklist.Index(); idx > 0 {
		c.playIndex(idx-1, true)
		return nil
	}
	return c.restart()
}

// restart plays the active entry again from the start.
func (c *QueueCoordinator) restart() error {
	if c.engine.hasMedia() {
		if err := c.engine.Restart(); err != nil {
			return err
		}
		return c.engine.Resume()
	}

	if c.activeFromManual {
		if active := c.engine.Session().ActiveEntry; active != nil {
			c.playManual(*active, true)
			return nil
		}
		return domain.ErrNoActiveEntry
	}
	if c.tracklist.Len() == 0 {
		return domain.ErrNoActiveEntry
	}
	c.playIndex(c.tracklist.Index(), true)
	return nil
}

func (c *QueueCoordinator) removeFromTracklist(i int) error {
	if i < 0 || i >= c.tracklist.Len() {
		return domain.ErrInvalidIndex
	}

	removed := c.tracklist.OrderedEntries[i]
	c.tracklist.OrderedEntries = slices.Delete(slices.Clone(c.tracklist.OrderedEntries), i, i+1)
	if c.tracklist.IsShuffled {
		c.tracklist.OriginalOrder = slices.DeleteFunc(slices.Clone(c.tracklist.OriginalOrder), removed.SameOccurrence)
	}

	if c.tracklist.Len() == 0 {
		if c.activeFromManual {
			c.tracklist = domain.TracklistState{}
			c.replayAnchor = false
			return nil
		}
		c.reset()
		return nil
	}

	idx := c.tracklist.Index()
	switch {
	case i < idx:
		idx--
		c.tracklist.CurrentIndex = &idx
	case i > idx:
	case c.activeFromManual:
		// The anchor went away while a manual entry plays; the entry that
		// took its place is the next one to play.
		if i > 0 {
			idx = i - 1
		} else {
			idx = 0
			c.replayAnchor = true
		}
		c.tracklist.CurrentIndex = &idx
	case i < c.tracklist.Len():
		c.playIndex(i, c.engine.Session().IsPlaying)
	default:
		c.logger.Debug("removed last entry while playing it")
		c.reset()
	}
	return nil
}

func (c *QueueCoordinator) playIndex(i int, autoplay bool) {
	c.tracklist.CurrentIndex = &i
	c.activeFromManual = false
	c.replayAnchor = false
	c.engine.Load(c.tracklist.OrderedEntries[i], autoplay)
}

func (c *QueueCoordinator) playManual(entry domain.QueueEntry, autoplay bool) {
	c.activeFromManual = true
	c.engine.Load(entry, autoplay)
}

// reset stops playback and empties the tracklist.
func (c *QueueCoordinator) reset() {
	c.engine.Stop()
	c.tracklist = domain.TracklistState{}
	c.activeFromManual = false
	c.replayAnchor = false
}

func (c *QueueCoordinator) setTracklist(state domain.TracklistState, index int) {
	state.CurrentIndex = &index
	c.tracklist = state
	c.replayAnchor = false
}

func (c *QueueCoordinator) assignSlots(entries []domain.QueueEntry) []domain.QueueEntry {
	slotted := slices.Clone(entries)
	for i := range slotted {
		c.nextSlot++
		slotted[i].Slot = c.nextSlot
	}
	return slotted
}

func (c *QueueCoordinator) shuffleEntries(entries []domain.QueueEntry) {
	swap := func(i, j int) { entries[i], entries[j] = entries[j], entries[i] }
	if c.rng != nil {
		c.rng.Shuffle(len(entries), swap)
		return
	}
	rand.Shuffle(len(entries), swap)
}

func (c *QueueCoordinator) intN(n int) int {
	if c.rng != nil {
		return c.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (c *QueueCoordinator) snapshot() domain.QueueSnapshot {
	return domain.QueueSnapshot{
		Tracklist:        c.tracklist.Clone(),
		ManualQueue:      slices.Clone(c.manual),
		Session:          c.engine.Session(),
		ActiveFromManual: c.activeFromManual,
	}
}

func (c *QueueCoordinator) publish() {
	if !c.bus.HasSubscribers(domain.EventQueueChanged) {
		return
	}
	c.bus.Publish(domain.NewQueueChangedEvent(c.snapshot()))
}

func (c *QueueCoordinator) record() domain.TracklistRecord {
	if c.tracklist.Len() == 0 {
		return domain.TracklistRecord{}
	}

	record := domain.TracklistRecord{
		SourceName:   c.tracklist.SourceName,
		TrackIDs:     trackIDs(c.tracklist.OrderedEntries),
		CurrentIndex: c.tracklist.Index(),
	}
	if c.tracklist.IsShuffled {
		record.OriginalTrackIDs = trackIDs(c.tracklist.OriginalOrder)
	}
	return record
}

// rebuild turns a saved record back into a tracklist using the known entries.
func (c *QueueCoordinator) rebuild(record *domain.TracklistRecord, byID map[string]domain.QueueEntry) (domain.TracklistState, int, bool) {
	var ordered []domain.QueueEntry
	index := -1
	for i, id := range record.TrackIDs {
		entry, ok := byID[id]
		if !ok {
			continue
		}
		if i <= record.CurrentIndex {
			index = len(ordered)
		}
		ordered = append(ordered, entry)
	}
	if len(ordered) == 0 {
		return domain.TracklistState{}, 0, false
	}
	if index < 0 {
		index = 0
	}

	state := domain.TracklistState{
		SourceName:     record.SourceName,
		OrderedEntries: c.assignSlots(ordered),
	}

	if len(record.OriginalTrackIDs) > 0 {
		if original, ok := matchOccurrences(state.OrderedEntries, record.OriginalTrackIDs); ok {
			state.OriginalOrder = original
			state.IsShuffled = true
		}
	}
	return state, index, true
}

func (c *QueueCoordinator) collectionName(key string) string {
	collections, err := c.entries.LoadCollections()
	if err != nil {
		return key
	}
	for _, collection := range collections {
		if collection.Key == key && collection.Name != "" {
			return collection.Name
		}
	}
	return key
}

// handleTrackCompleted moves on when the active entry plays out.
func (c *QueueCoordinator) handleTrackCompleted(event domain.Event) {
	if _, ok := event.(domain.TrackCompletedEvent); !ok {
		return
	}
	if err := c.advance(true); err != nil {
		c.logger.Debug("nothing to advance to", slog.Any("error", err))
	}
	c.publish()
}

// handleTrackError skips an entry whose media could not be played.
func (c *QueueCoordinator) handleTrackError(event domain.Event) {
	failed, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}

	c.bus.Publish(domain.NewNoticeEvent(fmt.Sprintf("Skipping %q: %v", failed.Entry.Title, failed.Error), failed.Error))

	if err := c.advance(c.engine.autoplay); err != nil {
		c.logger.Debug("nothing to advance to", slog.Any("error", err))
	}
	c.publish()
}

// move returns a copy of entries with entry from moved to index to.
func move(entries []domain.QueueEntry, from, to int) ([]domain.QueueEntry, error) {
	if from < 0 || from >= len(entries) || to < 0 || to >= len(entries) {
		return nil, domain.ErrInvalidIndex
	}
	moved := slices.Clone(entries)
	if from == to {
		return moved, nil
	}
	entry := moved[from]
	moved = slices.Delete(moved, from, from+1)
	return slices.Insert(moved, to, entry), nil
}

// matchOccurrences orders the occurrences in ordered by ids, pairing each id
// with the first unused occurrence of that track.
func matchOccurrences(ordered []domain.QueueEntry, ids []string) ([]domain.QueueEntry, bool) {
	if len(ids) != len(ordered) {
		return nil, false
	}
	used := make([]bool, len(ordered))
	result := make([]domain.QueueEntry, 0, len(ids))
	for _, id := range ids {
		found := false
		for j, entry := range ordered {
			if !used[j] && entry.TrackID == id {
				used[j] = true
				result = append(result, entry)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return result, true
}

func trackIDs(entries []domain.QueueEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.TrackID
	}
	return ids
}

func uniqueIDs(lists ...[]string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, list := range lists {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func noticeFor(op string, err error) string {
	return fmt.Sprintf("%s: %v", op, err)
}
