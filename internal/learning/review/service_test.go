package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/codepath-backend/internal/inference/engine/mock"
	"github.com/yungbote/codepath-backend/internal/inference/router"
	"github.com/yungbote/codepath-backend/internal/structured/gateway"
)

func newService(eng *mock.Engine) *Service {
	r := router.FromRoutes(router.Route{PublicModel: "mock-1", EngineType: "mock", Engine: eng})
	return NewService(gateway.New(r, nil, nil, gateway.Options{LogSchemaDrift: true}))
}

func TestService_ReviewCanned(t *testing.T) {
	eng := mock.New()
	got, err := newService(eng).Review(context.Background(), Request{
		Code:          "func Sum(xs []int) int {\n\treturn 0\n}",
		Language:      "go",
		ExerciseTitle: "Sum of a slice",
	})
	require.NoError(t, err)

	assert.Equal(t, 88, got.Score)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, LineRange{1, 2}, got.Comments[0].LineRange)
	assert.Equal(t, TypePraise, got.Comments[0].Type)
	assert.Equal(t, SeverityMedium, got.Comments[0].Severity)

	calls := eng.Calls()
	require.Len(t, calls, 1)
	user := calls[0].Messages[1].Content
	assert.Contains(t, user, `"Sum of a slice"`)
	assert.Contains(t, user, "1 | func Sum(xs []int) int {")
	assert.Contains(t, calls[0].Messages[0].Content, `"lineRange": [startLine, endLine]`)
}

func TestService_ReviewUnrepairable(t *testing.T) {
	_, err := newService(mock.New().Script("not json at all")).Review(context.Background(), Request{Code: "x"})
	require.Error(t, err)
}

func TestSchemaReflectsWireType(t *testing.T) {
	assert.Contains(t, Schema.JSON(), `"lineRange"`)
	assert.Contains(t, Schema.JSON(), `"praise"`)
	assert.NotEmpty(t, NewService(nil).PromptFingerprint())
}
