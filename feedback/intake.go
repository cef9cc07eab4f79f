package feedback

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/BaSui01/faqflow/types"
)

// Hook receives the exact feedback payload bytes the intake accepted. No
// synchronous response is required; a hook error only means the handoff
// failed.
type Hook interface {
	Forward(ctx context.Context, payload []byte) error
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, payload []byte) error

func (f HookFunc) Forward(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}

// Intake validates feedback and forwards it to one or more hooks. The bytes
// a hook receives are the bytes the caller submitted; the intake parses only
// to validate, never to rewrite.
type Intake struct {
	hooks  []Hook
	logger *zap.Logger
}

func NewIntake(logger *zap.Logger, hooks ...Hook) *Intake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Intake{
		hooks:  hooks,
		logger: logger.With(zap.String("component", "feedback_intake")),
	}
}

// Submit accepts a raw feedback payload. Validation failures reject the
// payload; hook failures are logged and do not fail the submission, since
// the learning pipeline is best-effort by contract.
func (in *Intake) Submit(ctx context.Context, payload []byte) error {
	var fb types.Feedback
	if err := json.Unmarshal(payload, &fb); err != nil {
		return types.NewError(types.ErrInvalidQuery, "feedback payload is not valid JSON").WithCause(err)
	}
	if err := fb.Validate(); err != nil {
		return err
	}

	for _, hook := range in.hooks {
		if err := hook.Forward(ctx, payload); err != nil {
			in.logger.Warn("feedback hook failed",
				zap.String("query_id", fb.QueryID),
				zap.Error(err))
		}
	}
	in.logger.Info("feedback accepted",
		zap.String("query_id", fb.QueryID),
		zap.Bool("helpful", fb.Helpful))
	return nil
}

// SubmitFeedback marshals a typed Feedback and submits it.
func (in *Intake) SubmitFeedback(ctx context.Context, fb *types.Feedback) error {
	if err := fb.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(fb)
	if err != nil {
		return types.NewError(types.ErrInternal, "feedback marshal failed").WithCause(err)
	}
	return in.Submit(ctx, payload)
}
