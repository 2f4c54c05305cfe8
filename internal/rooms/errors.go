package rooms

import "errors"

var (
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrNameTaken    = errors.New("player name already taken")
	ErrNotInRoom    = errors.New("player not in room")
)
