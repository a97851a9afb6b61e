package ws

import (
	"time"

	"github.com/repairboard/kioskd/internal/board"
)

const (
	TypeAck       = "ack"
	TypeHello     = "hello"
	TypeHeartbeat = "heartbeat"
	TypeQuit      = "quit"
	TypePage      = "page"
	TypeSummary   = "summary"
)

type BaseMessage struct {
	Type string `json:"type"`
}

// Display → Board

type HelloMessage struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type HeartbeatMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Board → Display

type AckMessage struct {
	Type      string `json:"type"`
	DisplayID string `json:"display_id"`
	BoardID   string `json:"board_id"`
	Message   string `json:"message"`
}

type PageMessage struct {
	Type       string       `json:"type"`
	BoardID    string       `json:"board_id"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	Rotation   uint64       `json:"rotation"`
	Cards      []board.Card `json:"cards"`
}

type SummaryMessage struct {
	Type            string    `json:"type"`
	BoardID         string    `json:"board_id"`
	Completed       int       `json:"completed"`
	FinalInspection int       `json:"finalInspection"`
	InProgress      int       `json:"inProgress"`
	Uptime          string    `json:"uptime"`
	Listing         string    `json:"listing"`
	GeneratedAt     time.Time `json:"generatedAt"`
}
