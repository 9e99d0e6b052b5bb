// Package mpris publishes now-playing state on the D-Bus session bus using the
// MPRIS2 interfaces, so desktop media widgets and hardware media keys can show
// and control playback.
package mpris

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/tejashwikalptaru/nowplaying/internal/domain"
	"github.com/tejashwikalptaru/nowplaying/internal/ports"
)

const (
	objectPath      = "/org/mpris/MediaPlayer2"
	rootInterface   = "org.mpris.MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"

	// BusNamePrefix is the well-known name prefix every MPRIS player must use.
	BusNamePrefix = "org.mpris.MediaPlayer2."

	trackPathPrefix = "/org/tejashwikalptaru/nowplaying/track/"
	noTrackPath     = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

	// commandBuffer bounds the commands waiting for the handler.
	commandBuffer = 16
)

// Config configures the exported player.
type Config struct {
	// BusName is the well-known name to own, e.g. org.mpris.MediaPlayer2.nowplaying
	BusName string

	// Identity is the human-readable player name shown by desktop widgets
	Identity string
}

// Surface is the MPRIS implementation of ports.NowPlayingSurface.
//
// D-Bus method calls arrive on the connection's goroutine. They are queued
// and handed to the command handler by a single worker goroutine so that a
// slow handler never stalls the bus.
//
// Thread-safety: This implementation is thread-safe via sync.Mutex.
type Surface struct {
	logger *slog.Logger
	conn   *dbus.Conn
	props  *prop.Properties
	name   string

	commands chan domain.RemoteCommand
	done     chan struct{}
	wg       sync.WaitGroup

	mu        sync.Mutex
	handler   ports.RemoteCommandHandler
	trackPath dbus.ObjectPath
	shown     trackMetadata
	elapsed   time.Duration
	duration  time.Duration
	closed    bool
}

// trackMetadata is the part of NowPlayingInfo carried by the Metadata property.
type trackMetadata struct {
	path       dbus.ObjectPath
	title      string
	artist     string
	artworkRef string
	duration   time.Duration
}

// New connects to the session bus, claims cfg.BusName and exports the
// MediaPlayer2 objects.
func New(logger *slog.Logger, cfg Config) (*Surface, error) {
	if !strings.HasPrefix(cfg.BusName, BusNamePrefix) {
		return nil, domain.NewValidationError("BusName", cfg.BusName, "must start with "+BusNamePrefix)
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect to session bus")
	}

	s := &Surface{
		logger:    logger,
		conn:      conn,
		name:      cfg.BusName,
		commands:  make(chan domain.RemoteCommand, commandBuffer),
		done:      make(chan struct{}),
		trackPath: noTrackPath,
		shown:     trackMetadata{path: noTrackPath},
	}

	if err := s.export(cfg); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s.wg.Add(1)
	go s.dispatch()

	logger.Info("mpris surface exported", slog.String("bus_name", cfg.BusName))
	return s, nil
}

func (s *Surface) export(cfg Config) error {
	reply, err := s.conn.RequestName(cfg.BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return errors.Wrapf(err, "request name %s", cfg.BusName)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.Newf("bus name %s already taken", cfg.BusName)
	}

	root := &mediaPlayer2{}
	player := &player{surface: s}

	if err := s.conn.Export(root, objectPath, rootInterface); err != nil {
		return errors.Wrap(err, "export root interface")
	}
	if err := s.conn.Export(player, objectPath, playerInterface); err != nil {
		return errors.Wrap(err, "export player interface")
	}

	props, err := prop.Export(s.conn, objectPath, playerProperties(cfg.Identity))
	if err != nil {
		return errors.Wrap(err, "export properties")
	}
	s.props = props

	node := &introspect.Node{
		Name: objectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{Name: rootInterface, Methods: introspect.Methods(root), Properties: props.Introspection(rootInterface)},
			{Name: playerInterface, Methods: introspect.Methods(player), Properties: props.Introspection(playerInterface)},
		},
	}
	if err := s.conn.Export(introspect.NewIntrospectable(node), objectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return errors.Wrap(err, "export introspection")
	}
	return nil
}

func playerProperties(identity string) map[string]map[string]*prop.Prop {
	return map[string]map[string]*prop.Prop{
		rootInterface: {
			"CanQuit":             {Value: false, Emit: prop.EmitTrue},
			"CanRaise":            {Value: false, Emit: prop.EmitTrue},
			"HasTrackList":        {Value: false, Emit: prop.EmitTrue},
			"Identity":            {Value: identity, Emit: prop.EmitTrue},
			"SupportedUriSchemes": {Value: []string{}, Emit: prop.EmitTrue},
			"SupportedMimeTypes":  {Value: []string{}, Emit: prop.EmitTrue},
		},
		playerInterface: {
			"PlaybackStatus": {Value: "Stopped", Emit: prop.EmitTrue},
			"Rate":           {Value: 1.0, Emit: prop.EmitTrue},
			"Metadata":       {Value: map[string]dbus.Variant{}, Emit: prop.EmitTrue},
			"Volume":         {Value: 1.0, Emit: prop.EmitTrue},
			"Position":       {Value: int64(0), Emit: prop.EmitFalse},
			"MinimumRate":    {Value: 1.0, Emit: prop.EmitTrue},
			"MaximumRate":    {Value: 1.0, Emit: prop.EmitTrue},
			"CanGoNext":      {Value: true, Emit: prop.EmitTrue},
			"CanGoPrevious":  {Value: true, Emit: prop.EmitTrue},
			"CanPlay":        {Value: true, Emit: prop.EmitTrue},
			"CanPause":       {Value: true, Emit: prop.EmitTrue},
			"CanSeek":        {Value: true, Emit: prop.EmitTrue},
			"CanControl":     {Value: true, Emit: prop.EmitTrue},
		},
	}
}

// Update publishes info as the current metadata and playback status.
func (s *Surface) Update(info domain.NowPlayingInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrNotInitialized
	}

	path := TrackPath(info.TrackID)
	if shown := trackMetadataOf(info); shown != s.shown {
		s.props.SetMust(playerInterface, "Metadata", metadataOf(path, info))
		s.shown = shown
	}
	s.props.SetMust(playerInterface, "PlaybackStatus", statusName(info.Status))
	s.props.SetMust(playerInterface, "Position", info.Elapsed.Microseconds())

	s.trackPath = path
	s.elapsed = info.Elapsed
	s.duration = info.Duration
	return nil
}

// Clear publishes empty metadata and a stopped status.
func (s *Surface) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrNotInitialized
	}

	s.props.SetMust(playerInterface, "Metadata", map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath(noTrackPath)),
	})
	s.props.SetMust(playerInterface, "PlaybackStatus", statusName(domain.StatusStopped))
	s.props.SetMust(playerInterface, "Position", int64(0))

	s.trackPath = noTrackPath
	s.shown = trackMetadata{path: noTrackPath}
	s.elapsed = 0
	s.duration = 0
	return nil
}

// SetCommandHandler installs the receiver for D-Bus transport calls.
func (s *Surface) SetCommandHandler(handler ports.RemoteCommandHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Close releases the bus name, stops the dispatch goroutine and closes the connection.
func (s *Surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	var errs []error
	if _, err := s.conn.ReleaseName(s.name); err != nil {
		errs = append(errs, errors.Wrap(err, "release name"))
	}
	if err := s.conn.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "close connection"))
	}
	return errors.Join(errs...)
}

// submit queues cmd for the handler. Commands are dropped when the queue is full.
func (s *Surface) submit(cmd domain.RemoteCommand) *dbus.Error {
	select {
	case s.commands <- cmd:
	case <-s.done:
	default:
		s.logger.Warn("remote command dropped", slog.String("command", cmd.Kind.String()))
	}
	return nil
}

// dispatch delivers queued commands until Close.
func (s *Surface) dispatch() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case cmd := <-s.commands:
			s.mu.Lock()
			handler := s.handler
			s.mu.Unlock()

			if handler == nil {
				continue
			}
			handler(cmd)
		}
	}
}

// seekBy converts a relative MPRIS seek into an absolute position.
func (s *Surface) seekBy(offset time.Duration) domain.RemoteCommand {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := max(s.elapsed+offset, 0)
	if s.duration > 0 {
		target = min(target, s.duration)
	}
	return domain.RemoteCommand{Kind: domain.CommandSeek, Position: target}
}

func (s *Surface) currentTrack() dbus.ObjectPath {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackPath
}

// TrackPath maps a track ID to a valid D-Bus object path.
func TrackPath(trackID string) dbus.ObjectPath {
	if trackID == "" {
		return noTrackPath
	}

	var b strings.Builder
	b.WriteString(trackPathPrefix)
	for _, r := range trackID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_%x", r)
		}
	}
	return dbus.ObjectPath(b.String())
}

func trackMetadataOf(info domain.NowPlayingInfo) trackMetadata {
	return trackMetadata{
		path:       TrackPath(info.TrackID),
		title:      info.Title,
		artist:     info.Artist,
		artworkRef: info.ArtworkRef,
		duration:   info.Duration,
	}
}

func metadataOf(path dbus.ObjectPath, info domain.NowPlayingInfo) map[string]dbus.Variant {
	metadata := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(path),
		"xesam:title":   dbus.MakeVariant(info.Title),
		"xesam:artist":  dbus.MakeVariant([]string{info.Artist}),
	}
	if info.Duration > 0 {
		metadata["mpris:length"] = dbus.MakeVariant(info.Duration.Microseconds())
	}
	if info.ArtworkRef != "" {
		metadata["mpris:artUrl"] = dbus.MakeVariant(artURL(info.ArtworkRef))
	}
	return metadata
}

func artURL(ref string) string {
	if strings.Contains(ref, "://") {
		return ref
	}
	return "file://" + ref
}

func statusName(status domain.PlaybackStatus) string {
	switch status {
	case domain.StatusPlaying:
		return "Playing"
	case domain.StatusPaused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// mediaPlayer2 implements org.mpris.MediaPlayer2. The player has no window
// and cannot be quit remotely.
type mediaPlayer2 struct{}

func (m *mediaPlayer2) Raise() *dbus.Error { return nil }

func (m *mediaPlayer2) Quit() *dbus.Error { return nil }

// player implements org.mpris.MediaPlayer2.Player.
type player struct {
	surface *Surface
}

func (p *player) Next() *dbus.Error {
	return p.surface.submit(domain.RemoteCommand{Kind: domain.CommandNext})
}

func (p *player) Previous() *dbus.Error {
	return p.surface.submit(domain.RemoteCommand{Kind: domain.CommandPrevious})
}

func (p *player) Pause() *dbus.Error {
	return p.surface.submit(domain.RemoteCommand{Kind: domain.CommandPause})
}

func (p *player) PlayPause() *dbus.Error {
	return p.surface.submit(domain.RemoteCommand{Kind: domain.CommandTogglePlayPause})
}

func (p *player) Stop() *dbus.Error {
	return p.surface.submit(domain.RemoteCommand{Kind: domain.CommandStop})
}

func (p *player) Play() *dbus.Error {
	return p.surface.submit(domain.RemoteCommand{Kind: domain.CommandPlay})
}

// Seek moves by offset microseconds relative to the current position.
func (p *player) Seek(offset int64) *dbus.Error {
	return p.surface.submit(p.surface.seekBy(time.Duration(offset) * time.Microsecond))
}

// SetPosition is ignored unless trackID names the current track.
func (p *player) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	if trackID != p.surface.currentTrack() || position < 0 {
		return nil
	}
	return p.surface.submit(domain.RemoteCommand{
		Kind:     domain.CommandSeek,
		Position: time.Duration(position) * time.Microsecond,
	})
}

func (p *player) OpenUri(string) *dbus.Error {
	return dbus.MakeFailedError(errors.New("opening URIs is not supported"))
}

// Verify that Surface implements the NowPlayingSurface interface
var _ ports.NowPlayingSurface = (*Surface)(nil)
