package utils

/**
 * This file contains utility functions to format the keys for Redis
 * (key, value) pairs. It avoids having to call "fmt.Sprintf(...)"
 * with the same format spec every time, potentially confusing the key format.
 */

import (
	"fmt"
	"strings"
)

const roomKeyPrefix = "room:"

func FormatRoomKey(code string) string {
	return fmt.Sprintf("%s%s", roomKeyPrefix, code)
}

// RoomKeyPattern matches every stored room, for SCAN-based iteration.
func RoomKeyPattern() string {
	return roomKeyPrefix + "*"
}

// RoomCodeFromKey recovers the room code from a stored key.
func RoomCodeFromKey(key string) string {
	return strings.TrimPrefix(key, roomKeyPrefix)
}
