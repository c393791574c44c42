package chat

import "time"

// History is one question and answer exchanged with the career assistant.
type History struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}
