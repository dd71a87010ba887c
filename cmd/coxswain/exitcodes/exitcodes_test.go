package exitcodes_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/coxswain-dev/coxswain/cmd/coxswain/exitcodes"
)

func TestOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "plain errors are generic failures",
			err:  errors.New("boom"),
			want: exitcodes.Generic,
		},
		{
			name: "coded errors keep their code",
			err:  exitcodes.WithCode(exitcodes.Timeout, errors.New("sync did not finish")),
			want: exitcodes.Timeout,
		},
		{
			name: "wrapping preserves the code",
			err:  errors.Wrap(exitcodes.WithCode(exitcodes.RenderFailure, errors.New("bad kustomization")), "sync failed"),
			want: exitcodes.RenderFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitcodes.Of(tc.err))
		})
	}
}

func TestWithCode(t *testing.T) {
	inner := errors.New("apply failed")
	err := exitcodes.WithCode(exitcodes.ApplyFailure, inner)

	assert.Equal(t, inner.Error(), err.Error())
	assert.ErrorIs(t, err, inner)
}
