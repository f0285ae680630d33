// Package chat shapes tutor replies.
package chat

import (
	"strings"

	"github.com/yungbote/codepath-backend/internal/learning/coerce"
	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

const (
	MaxFollowUps   = 3
	MaxReplyRunes  = 8000
	MaxHistoryTurn = 12
)

type Reply struct {
	Reply     string   `json:"reply"`
	FollowUps []string `json:"followUps"`
}

func Normalize(v jsonvalue.Value) (Reply, error) {
	if err := coerce.RequireObject(v, ""); err != nil {
		return Reply{}, err
	}
	raw, ok := coerce.Lookup(v, "reply", "answer", "message")
	if !ok {
		return Reply{}, coerce.Missing("reply")
	}
	text, ok := raw.Str()
	if !ok {
		return Reply{}, coerce.WrongType("reply", "a string", raw)
	}
	text = strings.TrimSpace(coerce.ClampRunes(strings.TrimSpace(text), MaxReplyRunes))
	if text == "" {
		return Reply{}, &coerce.ValidationError{Field: "reply", Reason: "must not be blank"}
	}
	follow, _ := coerce.Lookup(v, "followUps", "follow_ups", "suggestions")
	return Reply{Reply: text, FollowUps: coerce.Strings(follow, MaxFollowUps)}, nil
}
