package roomsync

import (
	"errors"
	"fmt"
)

// ConnID identifies a live connection for as long as it is registered.
type ConnID string

// Outbound event names.
const (
	EventConnected  = "connected"
	EventRoomUsers  = "room-users"
	EventPlaySong   = "play-song"
	EventPauseSong  = "pause-song"
	EventResumeSong = "resume-song"
	EventSeekSong   = "seek-song"
	EventError      = "error"
)

// Message is one outbound event. Body is encoded by the transport.
type Message struct {
	Event string
	Body  any
}

// IntentKind is the kind of a playback intent.
type IntentKind string

const (
	IntentPlay   IntentKind = "play"
	IntentPause  IntentKind = "pause"
	IntentResume IntentKind = "resume"
	IntentSeek   IntentKind = "seek"
)

var ErrUnknownIntent = errors.New("unknown playback intent")

// Intent is a transient playback command addressed to a room. It is never stored.
type Intent struct {
	Kind    IntentKind
	Room    string
	URL     string  // play
	Name    string  // play
	Elapsed float64 // seek, seconds
}

// PlayBody is the body of a relayed play-song event.
type PlayBody struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// ConnectedBody tells a client its own identity.
type ConnectedBody struct {
	ID ConnID `json:"id"`
}

// RoomInfo describes a room and its current size.
type RoomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

func (in Intent) message() (Message, error) {
	switch in.Kind {
	case IntentPlay:
		return Message{Event: EventPlaySong, Body: PlayBody{URL: in.URL, FileName: in.Name}}, nil
	case IntentPause:
		return Message{Event: EventPauseSong}, nil
	case IntentResume:
		return Message{Event: EventResumeSong}, nil
	case IntentSeek:
		return Message{Event: EventSeekSong, Body: in.Elapsed}, nil
	}
	return Message{}, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
}

func roomUsers(members []ConnID) Message {
	return Message{Event: EventRoomUsers, Body: members}
}
