package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	filenames []string
	err       error
}

func (r *recordingNotifier) SendFile(ctx context.Context, filename string, payload []byte, message string) error {
	r.filenames = append(r.filenames, filename)
	return r.err
}

func TestNopNotifier(t *testing.T) {
	require.NoError(t, NopNotifier{}.SendFile(context.Background(), "a.json", nil, "msg"))
}

func TestMultiNotifierFansOut(t *testing.T) {
	a := &recordingNotifier{}
	b := &recordingNotifier{}
	m := NewMultiNotifier(a, b)

	require.NoError(t, m.SendFile(context.Background(), "stats.json", []byte("{}"), ""))
	assert.Equal(t, []string{"stats.json"}, a.filenames)
	assert.Equal(t, []string{"stats.json"}, b.filenames)
}

func TestMultiNotifierAttemptsAllDespiteFailure(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("boom")}
	ok := &recordingNotifier{}
	m := NewMultiNotifier(failing, ok)

	err := m.SendFile(context.Background(), "report.csv", []byte("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"report.csv"}, ok.filenames)
}

func TestNewKafkaNotifierValidation(t *testing.T) {
	_, err := NewKafkaNotifier(KafkaConfig{Topic: "reports"})
	require.Error(t, err)

	_, err = NewKafkaNotifier(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.Error(t, err)
}

func TestKafkaNotifierCloseNilSafe(t *testing.T) {
	var n *KafkaNotifier
	require.NoError(t, n.Close())
}
