package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomyMatchesSentinels(t *testing.T) {
	wrapped := fmt.Errorf("save job: %w", Validation("amount", "amount must be greater than zero"))
	require.ErrorIs(t, wrapped, ErrValidation)
	var ve *ValidationError
	require.ErrorAs(t, wrapped, &ve)
	require.Equal(t, "amount", ve.Field)
	require.Equal(t, "amount must be greater than zero", ve.Error())

	require.ErrorIs(t, &AuthorizationError{Reason: "missing capability"}, ErrForbidden)
	require.ErrorIs(t, NotFound("job", int64(4)), ErrNotFound)
	require.Equal(t, "job 4 not found", NotFound("job", int64(4)).Error())

	ext := &ExternalServiceError{Service: "twilio", Err: context.DeadlineExceeded}
	require.ErrorIs(t, ext, ErrExternalService)
	require.ErrorIs(t, ext, context.DeadlineExceeded)

	integrity := &IntegrityError{Resource: "status", Key: "on-hold", Count: 3}
	require.ErrorIs(t, integrity, ErrIntegrity)
	require.Equal(t, `status "on-hold" is used by 3 records`, integrity.Error())
	require.False(t, errors.Is(integrity, ErrValidation))
}
