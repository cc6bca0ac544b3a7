package diffcodec

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, actions []Action) []Action {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, a := range actions {
		require.NoError(t, w.Write(a))
	}
	require.NoError(t, w.Flush())

	r := NewReader(&buf)
	var got []Action
	for {
		a, err := r.Next()
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
		got = append(got, a)
	}
	return got
}

func TestActionRoundTrip(t *testing.T) {
	actions := []Action{
		NewSkip(10),
		NewAdd([]byte("hello")),
		NewRemove(4),
		NewReplace(3, []byte("xyz")), // promotes to ReplaceEqual
		NewReplace(2, []byte("longer")),
	}
	got := roundTrip(t, actions)
	if diff := cmp.Diff(actions, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, ReplaceEqual, got[3].Kind)
	require.Equal(t, Replace, got[4].Kind)
}

func TestHeaderMagicAndVersion(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(NewSkip(5)))

	data := buf.Bytes()
	require.Equal(t, "PSDDIFF1", string(data[:8]))
	require.Equal(t, uint16(1), ByteOrder.Uint16(data[8:10]))
}

func TestBadMagicRejected(t *testing.T) {
	data := []byte("NOTAMAGIC" + "\x00\x01")
	r := NewReader(bytes.NewReader(data))
	_, err := r.Next()
	require.ErrorIs(t, err, ErrMagicMismatch)
}

func TestBadVersionRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.Write([]byte{0x00, 0x02}) // version 2, unsupported
	r := NewReader(&buf)
	_, err := r.Next()
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestUnknownActionCodeRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.Write([]byte{0x00, 0x01})
	buf.WriteByte(0x7F) // not a valid action code
	r := NewReader(&buf)
	_, err := r.Next()
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestTruncatedActionRejected(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(NewAdd([]byte("hello world"))))
	truncated := buf.Bytes()[:len(buf.Bytes())-3]
	r := NewReader(bytes.NewReader(truncated))
	_, err := r.Next()
	require.ErrorIs(t, err, ErrTruncated)
}

func TestEmptySourceIsHeaderOnlyDiff(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Flush())
	require.Equal(t, 10, buf.Len())

	r := NewReader(&buf)
	_, err := r.Next()
	require.ErrorIs(t, err, io.EOF)
}
