package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_ExponencialAcotado(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, DispatcherConfig{BaseBackoff: time.Second, MaxBackoff: 10 * time.Second}, nil)

	assert.Equal(t, time.Second, d.backoff(1))
	assert.Equal(t, 2*time.Second, d.backoff(2))
	assert.Equal(t, 8*time.Second, d.backoff(4))
	assert.Equal(t, 10*time.Second, d.backoff(5))
	assert.Equal(t, 10*time.Second, d.backoff(30))
}

func TestRecipients_SinRepetidos(t *testing.T) {
	got := recipients([]string{"a", "b", ""}, []string{"b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
