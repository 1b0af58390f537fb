/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room already full")
	ErrNotYourTurn  = errors.New("not your turn")
)
