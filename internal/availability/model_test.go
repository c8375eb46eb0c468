package availability

import (
	"reflect"
	"testing"

	"github.com/partolaaa/maker-space-tools/internal/schedule"
)

func window(t *testing.T, start, end string) schedule.Window {
	t.Helper()
	w, err := schedule.NewWindow(start, end)
	if err != nil {
		t.Fatalf("NewWindow(%s, %s): %v", start, end, err)
	}
	return w
}

func TestNormalize(t *testing.T) {
	w := func(t *testing.T) schedule.Window { return window(t, "09:00", "17:00") }

	t.Run("empty input stays empty", func(t *testing.T) {
		if got := Normalize(nil, w(t)); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})

	t.Run("slots outside window are dropped", func(t *testing.T) {
		raw := []Slot{
			{Time: "08:30", Available: true},
			{Time: "17:30", Available: true},
		}
		if got := Normalize(raw, w(t)); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})

	t.Run("boundary appended and sorted", func(t *testing.T) {
		raw := []Slot{
			{Time: "10:00", Available: true},
			{Time: "09:00", Available: true, Booked: true},
		}
		got := Normalize(raw, w(t))
		want := []Slot{
			{Time: "09:00", Available: true, Booked: true},
			{Time: "10:00", Available: true},
			{Time: "17:00", Available: true, Boundary: true},
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("existing boundary slot overwritten to free", func(t *testing.T) {
		raw := []Slot{
			{Time: "16:30", Available: true},
			{Time: "17:00", Available: false, Booked: true},
		}
		got := Normalize(raw, w(t))
		last := got[len(got)-1]
		if last.Time != "17:00" || !last.Boundary || !last.Available || last.Booked {
			t.Fatalf("boundary slot not forced free: %+v", last)
		}
		if n := len(got); n != 2 {
			t.Fatalf("expected 2 slots, got %d", n)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		raw := []Slot{
			{Time: "09:00", Available: true},
			{Time: "09:30", Available: false, Booked: true},
		}
		once := Normalize(raw, w(t))
		twice := Normalize(once, w(t))
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("not idempotent:\nonce  %v\ntwice %v", once, twice)
		}
	})

	t.Run("closed window yields nothing", func(t *testing.T) {
		raw := []Slot{{Time: "10:00", Available: true}}
		if got := Normalize(raw, schedule.Closed()); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})
}

func TestResolveInterval(t *testing.T) {
	tests := []struct {
		name  string
		slots []Slot
		want  int
	}{
		{name: "no slots", want: 30},
		{name: "single slot", slots: []Slot{{Time: "09:00"}}, want: 30},
		{
			name:  "boundary ignored",
			slots: []Slot{{Time: "09:00"}, {Time: "17:00", Boundary: true}},
			want:  30,
		},
		{
			name:  "fifteen minute ladder",
			slots: []Slot{{Time: "09:00"}, {Time: "09:15"}, {Time: "09:30"}},
			want:  15,
		},
		{
			name:  "hour ladder",
			slots: []Slot{{Time: "09:00"}, {Time: "10:00"}},
			want:  60,
		},
		{
			name:  "duplicate times fall back to default",
			slots: []Slot{{Time: "09:00"}, {Time: "09:00"}},
			want:  30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveInterval(tt.slots); got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDefaultSlots(t *testing.T) {
	w := window(t, "09:00", "11:00")
	got := DefaultSlots(w, 30)
	want := []Slot{
		{Time: "09:00", Available: true},
		{Time: "09:30", Available: true},
		{Time: "10:00", Available: true},
		{Time: "10:30", Available: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if DefaultSlots(schedule.Closed(), 30) != nil {
		t.Fatal("closed window should yield no slots")
	}
}

func TestSlotStateHelpers(t *testing.T) {
	boundary := Slot{Time: "17:00", Available: true, Booked: true, Boundary: true}
	if IsBooked(boundary) || IsBlocked(boundary) {
		t.Fatal("boundary slot must never count as busy")
	}
	if !IsBlocked(Slot{Time: "10:00", Available: false}) {
		t.Fatal("unavailable slot should be blocked")
	}
	if !IsBlocked(Slot{Time: "10:00", Available: true, Booked: true}) {
		t.Fatal("booked slot should be blocked")
	}
}
