package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// uuidV7At builds a deterministic UUIDv7 whose first 48 bits hold t in Unix milliseconds
func uuidV7At(t time.Time) uuid.UUID {
	var id uuid.UUID
	ms := uint64(t.UnixMilli())
	for i := 0; i < 6; i++ {
		id[i] = byte(ms >> (40 - 8*i))
	}
	id[6] = 0x70
	id[8] = 0x80
	id[15] = 0x01
	return id
}

func TestValidateEntryID(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		id   string
		want error
	}{
		{name: "created earlier", id: uuidV7At(now.Add(-72 * time.Hour)).String()},
		{name: "within clock skew", id: uuidV7At(now.Add(30 * time.Second)).String()},
		{name: "from the future", id: uuidV7At(now.Add(5 * time.Minute)).String(), want: ErrEntryIDFuture},
		{name: "version 4", id: uuid.New().String(), want: ErrEntryIDVersion},
		{name: "malformed", id: "019471a0-0000-7000-8000-", want: ErrInvalidEntryID},
		{name: "empty", id: "", want: ErrInvalidEntryID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntryID(tt.id, now)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("ValidateEntryID(%q) = %v, want nil", tt.id, err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("ValidateEntryID(%q) = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}

func TestNewEntryID(t *testing.T) {
	id, err := NewEntryID()
	if err != nil {
		t.Fatalf("NewEntryID() error = %v", err)
	}
	if err := ValidateEntryID(id, time.Now()); err != nil {
		t.Errorf("ValidateEntryID(NewEntryID()) = %v", err)
	}
}

func TestEntryIDTime(t *testing.T) {
	at := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	if got := EntryIDTime(uuidV7At(at).String()); got.UnixMilli() != at.UnixMilli() {
		t.Errorf("EntryIDTime() = %v, want %v", got, at)
	}
	if got := EntryIDTime(uuid.New().String()); !got.IsZero() {
		t.Errorf("EntryIDTime(v4) = %v, want zero", got)
	}
	if got := EntryIDTime("not-a-uuid"); !got.IsZero() {
		t.Errorf("EntryIDTime(invalid) = %v, want zero", got)
	}
}
