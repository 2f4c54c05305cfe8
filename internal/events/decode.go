package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"tunetrivia/internal/rooms"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Envelope is the frame every client message arrives in.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type codeNormalizer interface {
	normalizeCode(func(string) string)
}

func newRequest(event string) (Request, bool) {
	switch event {
	case CreateRoom:
		return &CreateRoomRequest{}, true
	case Join:
		return &JoinRequest{}, true
	case GetRoomPlayersScores:
		return &GetRoomPlayersScoresRequest{}, true
	case GetTotalRounds:
		return &GetTotalRoundsRequest{}, true
	case UpdateScore:
		return &UpdateScoreRequest{}, true
	case StartGame:
		return &StartGameRequest{}, true
	case HostStartRound:
		return &HostStartRoundRequest{}, true
	case PlayerFinishedRound:
		return &PlayerFinishedRoundRequest{}, true
	case HostSkipRound:
		return &HostSkipRoundRequest{}, true
	case HostContinueRound:
		return &HostContinueRoundRequest{}, true
	case HostEndGame:
		return &HostEndGameRequest{}, true
	case GetCurrentRound:
		return &GetCurrentRoundRequest{}, true
	case LeaveRoom:
		return &LeaveRoomRequest{}, true
	}
	return nil, false
}

// Decode turns an envelope into its typed request. The returned value is a
// pointer to one of the *Request types in this package.
func Decode(env Envelope) (Request, error) {
	req, ok := newRequest(env.Event)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if err := json.Unmarshal(data, req); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Event, err)
		}
	}

	if n, ok := req.(codeNormalizer); ok {
		n.normalizeCode(rooms.NormalizeCode)
	}

	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Event, err)
	}
	return req, nil
}

// Parse decodes a raw frame.
func Parse(frame []byte) (Request, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return Decode(env)
}
