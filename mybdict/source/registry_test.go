package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mybdict/mybdict/types"
)

type staticSource struct{ entries []types.Entry }

func (s *staticSource) Format() string { return "static_test" }

func (s *staticSource) Entries(ctx context.Context, _ string, fn func(types.Entry) error) error {
	for _, e := range s.entries {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func TestRegistry(t *testing.T) {
	Register("static_test", func() types.Source { return &staticSource{} })

	src, err := Lookup("static_test")
	require.NoError(t, err)
	assert.Equal(t, "static_test", src.Format())
	assert.Contains(t, Formats(), "static_test")

	assert.Panics(t, func() {
		Register("static_test", func() types.Source { return &staticSource{} })
	})

	_, err = Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), "static_test")
}
