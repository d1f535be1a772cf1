package collab

import (
	"encoding/json"

	"github.com/inamate/schematic/internal/cull"
	"github.com/inamate/schematic/internal/document"
)

type Message struct {
	Type      string          `json:"type"`
	DrawingID string          `json:"drawingId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// CursorPos is a pointer position in document units.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync = "doc.sync"

	// Per-client view and its culled snapshot
	TypeViewUpdate   = "view.update"
	TypeViewSnapshot = "view.snapshot"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	UserID    string `json:"userId"`
	ServerSeq int64  `json:"serverSeq"`
}

type DocSyncPayload struct {
	Document  *document.Document `json:"document"`
	ServerSeq int64              `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// ViewUpdatePayload is the camera of one client. Margin defaults to the
// hub's configured margin when omitted.
type ViewUpdatePayload struct {
	Zoom         float64        `json:"zoom"`
	Pan          document.Point `json:"pan"`
	PageID       string         `json:"pageId,omitempty"`
	ScreenWidth  float64        `json:"screenWidth"`
	ScreenHeight float64        `json:"screenHeight"`
	Margin       *float64       `json:"margin,omitempty"`
}

// Viewport is a document-space rectangle on the wire.
type Viewport struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// ViewSnapshotPayload carries the part of the document visible to one
// client.
type ViewSnapshotPayload struct {
	ServerSeq int64              `json:"serverSeq"`
	Viewport  Viewport           `json:"viewport"`
	Document  *document.Document `json:"document"`
	Stats     cull.Stats         `json:"stats"`
}

// --- Operation Types ---

const (
	OpElementAdd    = "element.add"
	OpElementUpdate = "element.update"
	OpElementDelete = "element.delete"
	OpElementMove   = "element.move"
	OpSettingsSet   = "settings.update"
	OpPageUpdate    = "page.update"
	OpDrawingRename = "drawing.rename"
)

// Operation represents a document mutation
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`
	ObjectID  string `json:"objectId,omitempty"`

	// For element.add / element.update
	Kind    string          `json:"kind,omitempty"`
	Element json.RawMessage `json:"element,omitempty"`
	Index   *int            `json:"index,omitempty"`

	// For element.delete, filled in by the server so the op can be undone
	PreviousElement json.RawMessage `json:"previousElement,omitempty"`

	// For element.move
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// For settings.update
	Settings *document.Settings `json:"settings,omitempty"`

	// For page.update
	Page *document.Page `json:"page,omitempty"`

	// For drawing.rename
	Name         string `json:"name,omitempty"`
	PreviousName string `json:"previousName,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}
