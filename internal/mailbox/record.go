package mailbox

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
)

// User is a directory entry.
type User struct {
	Login    string
	FullName string
}

// Message is one chat message. Created is assigned at enqueue time and kept
// at microsecond precision.
type Message struct {
	Sender    string
	Recipient string
	Body      string
	Created   time.Time
}

// Queued pairs a drained message with the exact key it was read from.
type Queued struct {
	Key     string
	Message Message
}

type userRecord struct {
	Login    string `json:"login"`
	FullName string `json:"full_name"`
}

// created is fractional unix seconds.
type messageRecord struct {
	Sender    string   `json:"sender"`
	Recipient string   `json:"recipient"`
	Body      string   `json:"body"`
	Created   *float64 `json:"created"`
}

func encodeUser(u User) ([]byte, error) {
	return json.Marshal(userRecord{Login: u.Login, FullName: u.FullName})
}

func decodeUser(b []byte) (User, error) {
	var r userRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return User{}, fmt.Errorf("%w: user: %v", errs.ErrDeserialization, err)
	}
	if r.Login == "" {
		return User{}, fmt.Errorf("%w: user: missing login", errs.ErrDeserialization)
	}
	return User{Login: r.Login, FullName: r.FullName}, nil
}

func encodeMessage(m Message) ([]byte, error) {
	created := unixSeconds(m.Created)
	return json.Marshal(messageRecord{Sender: m.Sender, Recipient: m.Recipient, Body: m.Body, Created: &created})
}

func decodeMessage(b []byte) (Message, error) {
	var r messageRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return Message{}, fmt.Errorf("%w: message: %v", errs.ErrDeserialization, err)
	}
	switch {
	case r.Sender == "":
		return Message{}, fmt.Errorf("%w: message: missing sender", errs.ErrDeserialization)
	case r.Recipient == "":
		return Message{}, fmt.Errorf("%w: message: missing recipient", errs.ErrDeserialization)
	case r.Created == nil || math.IsNaN(*r.Created) || math.IsInf(*r.Created, 0):
		return Message{}, fmt.Errorf("%w: message: missing or invalid created", errs.ErrDeserialization)
	}
	return Message{Sender: r.Sender, Recipient: r.Recipient, Body: r.Body, Created: fromUnixSeconds(*r.Created)}, nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

func fromUnixSeconds(f float64) time.Time {
	sec := math.Floor(f)
	micros := math.Round((f - sec) * 1e6)
	return time.Unix(int64(sec), int64(micros)*int64(time.Microsecond)).UTC()
}
