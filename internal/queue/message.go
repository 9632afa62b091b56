package queue

import (
	"encoding/json"
	"errors"
)

// MessageVersion is the schema version stamped on every event.
const MessageVersion = 1

// ErrIncompleteMessage is returned for events without a session id or submission key.
var ErrIncompleteMessage = errors.New("decision event missing sessionId or submissionKey")

// Message announces one accepted decision to downstream consumers.
type Message struct {
	SessionID     string `json:"sessionId"`
	SubmissionKey string `json:"submissionKey"`
	ActivityID    int    `json:"activityId"`
	ActivityName  string `json:"activityName,omitempty"`
	Outcome       string `json:"outcome"`
	DecidedAt     string `json:"decidedAt"`
	Version       int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Version == 0 {
		msg.Version = MessageVersion
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.SessionID == "" || msg.SubmissionKey == "" {
		return msg, ErrIncompleteMessage
	}
	return msg, nil
}
