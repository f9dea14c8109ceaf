package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryErrorsMatchSentinel(t *testing.T) {
	cause := stderrors.New("deadline exceeded")
	errs := []error{
		NewTemplateNotFoundError("Unknown"),
		NewLLMCallFailedError("Strengths", cause),
		NewSchemaValidationFailedError("Strengths", "insights: required"),
		NewCategoryPanicError("Strengths", "nil map"),
	}
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrCategoryFailed)
		assert.NotErrorIs(t, err, ErrUnauthenticated)
	}
	assert.ErrorIs(t, errs[1], cause)
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("validate: %w", NewUnauthenticatedError(MsgInvalidToken, "status 401"))
	assert.Equal(t, ErrCodeUnauthenticated, CodeOf(wrapped))
	assert.Equal(t, ErrCodeTemplateNotFound, CodeOf(NewTemplateNotFoundError("x")))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain")))
}

func TestPublicMessageHidesDetails(t *testing.T) {
	assert.Equal(t, MsgInvalidToken, PublicMessage(NewUnauthenticatedError(MsgInvalidToken, "supabase said: jwt expired")))
	assert.Equal(t, MsgUnauthorized, PublicMessage(ErrUnauthenticated))
	assert.Equal(t, MsgInternalError, PublicMessage(stderrors.New("dial tcp: connection refused")))
	assert.Equal(t, MsgInternalError, PublicMessage(NewInternalError(stderrors.New("secret"))))
}

func TestErrorString(t *testing.T) {
	err := NewTemplateNotFoundError("Unknown Category")
	assert.Equal(t, "StandardError[TEMPLATE_NOT_FOUND]: Prompt template not found: category: Unknown Category", err.Error())
	assert.Equal(t, "StandardError[CONFIG_INVALID]: Invalid configuration", NewConfigInvalidError("").Error())
}
