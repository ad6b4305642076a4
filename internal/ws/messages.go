package ws

import (
	"bytes"
	"encoding/json"
	"errors"
)

var (
	ErrMissingRoom = errors.New("missing room name")
	ErrMissingTime = errors.New("missing time")
)

// Envelope wraps every inbound WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "join-room"
	Body  json.RawMessage `json:"body,omitempty"` // event specific
}

type outEnvelope struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// ──────────────────────────── Request DTOs ─────────────────────────────────

// RoomRef is the body of create-room, join-room and leave-room. Clients send
// either a bare string or {"roomName": "..."}. An explicit empty string is a
// valid name; an absent one is not.
type RoomRef struct {
	Name string
	set  bool
}

func (r *RoomRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		if err := json.Unmarshal(b, &r.Name); err != nil {
			return err
		}
		r.set = true
		return nil
	}

	var obj struct {
		RoomName *string `json:"roomName"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.RoomName != nil {
		r.Name, r.set = *obj.RoomName, true
	}
	return nil
}

func (r RoomRef) validate() error {
	if !r.set {
		return ErrMissingRoom
	}
	return nil
}

// RoomRequest is the body of pause-song and resume-song.
type RoomRequest struct {
	RoomName *string `json:"roomName"`
}

// PlaySongRequest is the body of play-song.
type PlaySongRequest struct {
	RoomName *string `json:"roomName"`
	SongURL  string  `json:"songUrl"`
	FileName string  `json:"fileName"`
}

// SeekSongRequest is the body of seek-song. Time is in seconds.
type SeekSongRequest struct {
	RoomName *string  `json:"roomName"`
	Time     *float64 `json:"time"`
}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}

func roomOf(name *string) (string, error) {
	if name == nil {
		return "", ErrMissingRoom
	}
	return *name, nil
}
