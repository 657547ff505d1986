package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lordkro/nullupload/internal/models"
	"github.com/Lordkro/nullupload/internal/storage"
)

func newTestList() *List {
	l := New(storage.NewMemory())
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	l.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return l
}

func TestList_Add(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		want    string
		wantErr error
	}{
		{name: "valid", email: "ann@example.com", want: "ann@example.com"},
		{name: "normalised", email: "  Bob@Example.COM ", want: "bob@example.com"},
		{name: "empty", email: "", wantErr: ErrInvalidEmail},
		{name: "not an email", email: "not-an-email", wantErr: ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestList()
			entry, err := l.Add(context.Background(), tt.email)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.Email)
		})
	}
}

func TestList_Dedupe(t *testing.T) {
	ctx := context.Background()
	l := newTestList()

	_, err := l.Add(ctx, "ann@example.com")
	require.NoError(t, err)
	_, err = l.Add(ctx, "ANN@example.com")
	require.ErrorIs(t, err, ErrAlreadyJoined)
	_, err = l.Add(ctx, "bob@example.com")
	require.NoError(t, err)

	all, err := l.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ann@example.com", all[0].Email)
	assert.Equal(t, "bob@example.com", all[1].Email)
}

func TestList_Empty(t *testing.T) {
	all, err := newTestList().All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestList_Corrupt(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, models.WaitlistStorageKey, []byte("{")))

	l := New(kv)
	_, err := l.All(ctx)
	require.Error(t, err)
	_, err = l.Add(ctx, "ann@example.com")
	require.Error(t, err)
}
