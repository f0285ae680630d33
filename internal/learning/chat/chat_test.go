package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/codepath-backend/internal/inference/engine/mock"
	"github.com/yungbote/codepath-backend/internal/inference/router"
	"github.com/yungbote/codepath-backend/internal/learning/coerce"
	"github.com/yungbote/codepath-backend/internal/structured/gateway"
	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

func TestNormalize(t *testing.T) {
	v, err := jsonvalue.ParseString(`{"answer":"  Check the loop bound. ","suggestions":["a","b","c","d",5]}`)
	require.NoError(t, err)
	got, err := Normalize(v)
	require.NoError(t, err)
	assert.Equal(t, Reply{Reply: "Check the loop bound.", FollowUps: []string{"a", "b", "c"}}, got)
}

func TestNormalize_Errors(t *testing.T) {
	cases := []struct{ raw, reason string }{
		{`{"followUps":[]}`, "is required"},
		{`{"reply":"   "}`, "must not be blank"},
		{`{"reply":["x"]}`, "must be a string, got array"},
		{`"hello"`, "must be an object, got string"},
	}
	for _, tc := range cases {
		v, err := jsonvalue.ParseString(tc.raw)
		require.NoError(t, err)
		_, err = Normalize(v)
		var ve *coerce.ValidationError
		require.ErrorAs(t, err, &ve, tc.raw)
		assert.Equal(t, tc.reason, ve.Reason, tc.raw)
	}
}

func TestService_ReplyTrimsHistory(t *testing.T) {
	eng := mock.New()
	r := router.FromRoutes(router.Route{PublicModel: "mock-1", EngineType: "mock", Engine: eng})
	svc := NewService(gateway.New(r, nil, nil, gateway.Options{}))

	var history []Turn
	for i := 0; i < MaxHistoryTurn+3; i++ {
		history = append(history, Turn{Role: "learner", Content: fmt.Sprintf("turn-%02d", i)})
	}
	got, err := svc.Reply(context.Background(), Request{Message: "why is it empty?", History: history, Code: "x := []int{}"})
	require.NoError(t, err)
	assert.Equal(t, "Try printing the slice length before the loop.", got.Reply)
	assert.Len(t, got.FollowUps, 1)

	user := eng.Calls()[0].Messages[1].Content
	assert.NotContains(t, user, "turn-02")
	assert.Contains(t, user, "turn-03")
	assert.Contains(t, user, "turn-14")
	assert.True(t, strings.HasSuffix(user, "Learner: why is it empty?"))
	assert.Contains(t, user, "1 | x := []int{}")
}
