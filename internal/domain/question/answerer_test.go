package question

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/llm/llmtest"
	"github.com/janhq/drivethru-server/internal/domain/menu/menutest"
)

func TestCategoryPhrase(t *testing.T) {
	tests := []struct {
		category Category
		want     audio.PhraseType
	}{
		{CategoryRestaurantInfo, audio.RestaurantInfo},
		{CategoryMenu, audio.QuestionAnswered},
		{CategoryOrder, audio.QuestionAnswered},
		{CategoryGeneral, audio.QuestionNotFound},
		{"", audio.CustomResponse},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.category.Phrase(), string(tt.category))
	}
}

func TestAnswerUsesRestaurantFacts(t *testing.T) {
	stub := llmtest.NewStub().Respond(llm.StageQuestion,
		`{"answer": "We're open 6am to midnight.", "category": "restaurant_info", "confidence": 0.95}`)

	ans := NewAnswerer(stub, menutest.Sample(), zerolog.Nop()).
		Answer(context.Background(), "when are you open?", menutest.RestaurantID, nil, nil)

	require.True(t, ans.Success)
	assert.Equal(t, CategoryRestaurantInfo, ans.Category)
	assert.Equal(t, "We're open 6am to midnight.", ans.Text)

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].User, "Hours: 6am to midnight")
	assert.Contains(t, calls[0].User, "Meteor Melt (Sandwiches) $6.99, sold out")
	assert.Contains(t, calls[0].User, "(empty)")
}

func TestAnswerUnknownCategory(t *testing.T) {
	stub := llmtest.NewStub().Respond(llm.StageQuestion, `{"answer": "Sure thing.", "category": "smalltalk", "confidence": 0.6}`)

	ans := NewAnswerer(stub, menutest.Sample(), zerolog.Nop()).
		Answer(context.Background(), "how's your day?", menutest.RestaurantID, nil, nil)

	assert.True(t, ans.Success)
	assert.Equal(t, audio.CustomResponse, ans.Category.Phrase())
}

func TestAnswerDegrades(t *testing.T) {
	src := menutest.Sample()
	src.SetErr(errors.New("catalog down"))
	stub := llmtest.NewStub().Fail(llm.StageQuestion, errors.New("model down"))

	ans := NewAnswerer(stub, src, zerolog.Nop()).
		Answer(context.Background(), "is the cola diet?", menutest.RestaurantID, nil, nil)

	assert.False(t, ans.Success)
	assert.Equal(t, CategoryGeneral, ans.Category)
	assert.Equal(t, audio.Text(audio.QuestionNotFound, nil), ans.Text)
}
