package clipboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServiceCopyForwardsText(t *testing.T) {
	var received string
	service := &Service{writeAll: func(text string) error {
		received = text
		return nil
	}}
	require.NoError(t, service.Copy("{\"name\":\"OSINT Explorer\"}"))
	require.Equal(t, "{\"name\":\"OSINT Explorer\"}", received)
}

func TestServiceCopyWrapsFailure(t *testing.T) {
	service := &Service{writeAll: func(string) error { return ErrClipboardUnavailable }}
	require.ErrorIs(t, service.Copy("payload"), ErrClipboardUnavailable)
}
