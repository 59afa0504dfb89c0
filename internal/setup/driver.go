package setup

import (
	"context"
	"time"
)

// Drive feeds one utterance to the engine and then keeps asking the
// next question for as long as the engine signals continuation, pausing
// ContinuationDelay between questions. Every result, including the
// intermediate ones, is passed to emit in order. The state machine
// itself stays synchronous; this loop is the only place timing lives.
//
// A canceled context stops the loop between calls, so no transition is
// applied after the caller has navigated away.
func Drive(ctx context.Context, engine *Engine, childUtterance string, emit func(Result)) (Result, error) {
	result, err := engine.Advance(ctx, childUtterance)
	if err != nil {
		return Result{}, err
	}
	if emit != nil {
		emit(result)
	}

	for result.NeedsContinuation {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(ContinuationDelay):
		}

		result, err = engine.Advance(ctx, "")
		if err != nil {
			return Result{}, err
		}
		if emit != nil {
			emit(result)
		}
	}
	return result, nil
}
