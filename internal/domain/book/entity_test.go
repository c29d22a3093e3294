package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBook(t *testing.T) {
	b, err := NewBook("The Go Programming Language", "978-0134190440", 5900, true, time.Now(), DefaultAvailableCopy, "", "", []uint{1})
	require.NoError(t, err)
	assert.Equal(t, 1, b.AvailableCopy)
	assert.True(t, b.IsAvailable())

	_, err = NewBook("x", "9780134190440", -1, true, time.Now(), 1, "", "", nil)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = NewBook("x", "9780134190440", 100, true, time.Now(), -1, "", "", nil)
	assert.ErrorIs(t, err, ErrInvalidCopies)

	_, err = NewBook("x", "97801", 100, true, time.Now(), 1, "", "", nil)
	assert.ErrorIs(t, err, ErrInvalidISBN)

	_, err = NewBook("   ", "9780134190440", 100, true, time.Now(), 1, "", "", nil)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestIsValidISBN(t *testing.T) {
	tests := []struct {
		isbn string
		want bool
	}{
		{"9787115428028", true},
		{"978-7-115-42802-8", true},
		{"0306406152", true},
		{"030640615X", true},
		{"X306406152", false},
		{"12345", false},
		{"978711542802a", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isValidISBN(tt.isbn), tt.isbn)
	}
}

func TestSetAvailableCopy(t *testing.T) {
	b := &Book{AvailableCopy: 3}
	require.NoError(t, b.SetAvailableCopy(0))
	assert.False(t, b.IsAvailable())
	assert.ErrorIs(t, b.SetAvailableCopy(-1), ErrInvalidCopies)
	assert.Equal(t, 0, b.AvailableCopy)
}
