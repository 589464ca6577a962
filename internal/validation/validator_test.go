package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	ExternalID string  `json:"externalId" validate:"required"`
	Points     *int    `json:"bonusPoints" validate:"omitempty,gte=0"`
	Store      *string `json:"preferredStore" validate:"omitempty,max=5"`
}

func TestEchoValidator(t *testing.T) {
	v, err := English()
	require.NoError(t, err, "failed to build validator")

	t.Log("valid payload passes")
	{
		require.NoError(t, v.Validate(payload{ExternalID: "12345"}))
	}

	t.Log("violations are reported under json field names")
	{
		points := -1
		err := v.Validate(payload{Points: &points})

		var pldErr *PayloadError
		require.True(t, errors.As(err, &pldErr), "payload error must be raised")
		require.ElementsMatch(t, []string{"externalId", "bonusPoints"}, pldErr.Fields())
		require.Contains(t, pldErr.Error(), "externalId is a required field")
	}
}
