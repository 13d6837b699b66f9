// Package domain contains core concepts of the relay system.
// This file defines room identifiers and their namespaces.
// No runtime, network, or UI logic should be added here.
package domain

import "fmt"

type RoomKind string

const (
	// RoomKindChat addresses every connection currently viewing a conversation.
	RoomKindChat RoomKind = "chat"
	// RoomKindUser addresses every live session of a single user,
	// whether or not that user has joined any chat room.
	RoomKindUser RoomKind = "user"
)

// RoomID is a tagged room identifier. Chat ids and user ids live in
// separate namespaces so they can never collide as registry keys.
type RoomID struct {
	Kind RoomKind
	Name string
}

func ChatRoom(chatID string) RoomID {
	return RoomID{Kind: RoomKindChat, Name: chatID}
}

func UserRoom(userID string) RoomID {
	return RoomID{Kind: RoomKindUser, Name: userID}
}

func (r RoomID) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.Name)
}
