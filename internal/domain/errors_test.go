package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeMapsWrappedErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: bad extension", ErrValidation), CodeValidation},
		{fmt.Errorf("%w: corrupt pdf", ErrExtraction), CodeExtraction},
		{fmt.Errorf("%w: upsert: %v", ErrIndexing, errors.New("down")), CodeIndexing},
		{fmt.Errorf("%w: search", ErrRetrieval), CodeRetrieval},
		{fmt.Errorf("%w: model", ErrGeneration), CodeGeneration},
		{fmt.Errorf("%w: rollback", ErrConsistency), CodeConsistency},
		{fmt.Errorf("%w: document 9", ErrNotFound), CodeNotFound},
		{errors.New("something else"), CodeInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Code(tc.err))
	}
}
