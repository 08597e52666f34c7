package workflow

import (
	"context"
)

// Question answers about the menu, the order or the restaurant. The order
// is read but never changed.
func (e *Executor) Question(ctx context.Context, in Input) Result {
	o, fail := e.loadOrder(ctx, TypeQuestion, in.Session)
	if fail != nil {
		return *fail
	}

	ans := e.deps.Answerer.Answer(ctx, in.Text, in.Session.RestaurantID, o, in.Session.Conversation)
	e.log.Debug().Str("session_id", in.Session.ID).Str("category", string(ans.Category)).
		Bool("answered", ans.Success).Msg("question answered")

	outcome := OutcomeSuccess
	if !ans.Success {
		outcome = OutcomeRejected
	}
	return Result{
		Workflow:         TypeQuestion,
		Success:          ans.Success,
		Outcome:          outcome,
		Phrase:           ans.Category.Phrase(),
		Message:          ans.Text,
		QuestionCategory: string(ans.Category),
	}
}
