package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/contextres"
	"github.com/janhq/drivethru-server/internal/domain/extraction"
	"github.com/janhq/drivethru-server/internal/domain/intent"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/llm/llmtest"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/menu/menutest"
	"github.com/janhq/drivethru-server/internal/domain/modify"
	"github.com/janhq/drivethru-server/internal/domain/noise"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/question"
	"github.com/janhq/drivethru-server/internal/domain/removal"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/domain/workflow"
	"github.com/janhq/drivethru-server/internal/infrastructure/store"
)

type recordingObserver struct {
	mu       sync.Mutex
	stages   []string
	outcomes []string
	context  []contextres.Status
	turns    int
}

func (o *recordingObserver) StartStage(ctx context.Context, stage string) (context.Context, func(string)) {
	o.mu.Lock()
	o.stages = append(o.stages, stage)
	o.mu.Unlock()
	return ctx, func(outcome string) {
		o.mu.Lock()
		o.outcomes = append(o.outcomes, outcome)
		o.mu.Unlock()
	}
}

func (o *recordingObserver) ContextResolved(status contextres.Status, used bool) {
	o.context = append(o.context, status)
}

func (o *recordingObserver) TurnCompleted(intent.Intent, workflow.Result, time.Duration) {
	o.turns++
}

type fixture struct {
	pipeline *Pipeline
	sessions session.Service
	orders   *store.MemoryOrderStore
	stub     *llmtest.Stub
	observer *recordingObserver
	sess     *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()
	src := menutest.Sample()
	catalog := menu.NewCatalog(src, 60)
	orders := store.NewMemoryOrderStore(log)
	sessions := session.NewService(store.NewMemorySessionStore(log), orders, catalog, 0, log)
	stub := llmtest.NewStub()

	exec := workflow.NewExecutor(workflow.Dependencies{
		Orders:    orders,
		Sessions:  sessions,
		Catalog:   catalog,
		Resolver:  menu.NewResolver(catalog, 15, log),
		Extractor: extraction.NewExtractor(stub, log),
		Modify:    modify.NewParser(stub, order.DefaultLimits.MaxItemQuantity, log),
		Removal:   removal.NewParser(stub, log),
		Answerer:  question.NewAnswerer(stub, src, log),
	}, order.DefaultLimits, log)

	observer := &recordingObserver{}
	p := New(Config{
		Sessions:   sessions,
		Orders:     orders,
		Vocabulary: catalog,
		Noise:      noise.NewFilter(stub, log),
		Classifier: intent.NewClassifier(stub, log),
		Context:    contextres.NewResolver(stub, contextres.Bands{Success: 0.8, Clarify: 0.3}, 0.8, log),
		Executor:   exec,
		Observer:   observer,
	}, log)

	started, err := sessions.CreateSession(context.Background(), session.CreateRequest{LaneID: "lane-1", RestaurantID: menutest.RestaurantID})
	require.NoError(t, err)
	return &fixture{pipeline: p, sessions: sessions, orders: orders, stub: stub, observer: observer, sess: started.Session}
}

func TestProcessAddThenRemoveByPronoun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stub.
		Respond(llm.StageNoiseFilter, "a cosmic burger please", "take that off").
		Respond(llm.StageIntent, `{"intent": "ADD_ITEM", "confidence": 0.95}`, `{"intent": "REMOVE_ITEM", "confidence": 0.9}`).
		Respond(llm.StageExtraction, `{"success": true, "confidence": 0.95, "extracted_items": [
			{"item_name": "cosmic burger", "quantity": 1, "confidence": 0.95}]}`)

	turn, err := f.pipeline.Process(ctx, f.sess.ID, "a cosmic burger please")
	require.NoError(t, err)
	assert.Equal(t, intent.AddItem, turn.Intent.Intent)
	assert.Nil(t, turn.Context)
	require.True(t, turn.Result.Success)
	require.NotNil(t, turn.Order)
	assert.Len(t, turn.Order.Items, 1)

	turn, err = f.pipeline.Process(ctx, f.sess.ID, "take that off")
	require.NoError(t, err)
	require.NotNil(t, turn.Context)
	assert.Equal(t, contextres.SourceAntecedent, turn.Context.Source)
	assert.Equal(t, "take the Cosmic Burger off", turn.Instruction)
	require.True(t, turn.Result.Success, turn.Result.Message)
	assert.Equal(t, audio.ItemRemovedSuccess, turn.Result.Phrase)
	assert.True(t, turn.Order.IsEmpty())
	assert.Empty(t, f.stub.CallsFor(llm.StageContext))

	sess, err := f.sessions.GetSession(ctx, f.sess.ID)
	require.NoError(t, err)
	// greeting plus two exchanges
	assert.Equal(t, 5, sess.Conversation.Len())
	assert.Equal(t, 2, sess.Commands.Len())
	assert.Equal(t, 2, f.observer.turns)
	assert.Equal(t, []contextres.Status{contextres.StatusSuccess}, f.observer.context)
}

func TestProcessClarifiesUnresolvedReference(t *testing.T) {
	f := newFixture(t)
	f.stub.
		Respond(llm.StageNoiseFilter, "make it bigger").
		Respond(llm.StageIntent, `{"intent": "MODIFY_ITEM", "confidence": 0.7}`).
		Respond(llm.StageContext, `{"status": "CLARIFICATION_NEEDED", "clarification_message": "Which item should be bigger?", "confidence": 0.5}`)

	turn, err := f.pipeline.Process(context.Background(), f.sess.ID, "make it bigger")
	require.NoError(t, err)

	assert.Equal(t, workflow.TypeClarification, turn.Result.Workflow)
	assert.Equal(t, audio.LLMGenerated, turn.Result.Phrase)
	assert.False(t, turn.Result.Success)
	assert.Equal(t, "Which item should be bigger?", turn.Result.Message)
	assert.NotContains(t, f.observer.stages, StageWorkflow)
	assert.Empty(t, f.stub.CallsFor(llm.StageModify))
}

func TestProcessUnknownIntent(t *testing.T) {
	f := newFixture(t)
	f.stub.
		Respond(llm.StageNoiseFilter, "what a day").
		Respond(llm.StageIntent, `{"intent": "UNKNOWN", "confidence": 0.9}`)

	turn, err := f.pipeline.Process(context.Background(), f.sess.ID, "what a day")
	require.NoError(t, err)

	assert.LessOrEqual(t, turn.Intent.Confidence, intent.MaxUnknownConfidence)
	assert.Equal(t, workflow.TypeUnknown, turn.Result.Workflow)
	assert.Equal(t, audio.DidntUnderstand, turn.Result.Phrase)
}

func TestProcessSurvivesModelOutage(t *testing.T) {
	f := newFixture(t)
	f.stub.
		Fail(llm.StageNoiseFilter, assert.AnError).
		Fail(llm.StageIntent, assert.AnError)

	turn, err := f.pipeline.Process(context.Background(), f.sess.ID, "two nebula fries")
	require.NoError(t, err)

	assert.Equal(t, "two nebula fries", turn.Cleaned)
	assert.Equal(t, intent.Unknown, turn.Intent.Intent)
	assert.NotEmpty(t, turn.Result.Message)
}

func TestProcessUnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Process(context.Background(), "sess_missing", "hello")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
