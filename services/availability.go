package services

import (
	"encoding/json"
	"fmt"

	"github.com/anjiri1684/field_booking/utils"
)

const (
	BusinessOpen  = 8 * 60
	BusinessClose = 22 * 60
	SlotMinutes   = 60

	minutesPerDay = 24 * 60
)

// Slot is a half-open [Start, End) interval in minutes since midnight.
type Slot struct {
	Start int
	End   int
}

func (s Slot) Overlaps(o Slot) bool {
	return s.Start < o.End && s.End > o.Start
}

func (s Slot) Contains(o Slot) bool {
	return s.Start <= o.Start && s.End >= o.End
}

func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}{utils.FormatClock(s.Start), utils.FormatClock(s.End)})
}

// Window is the daily bookable range cut into equal slots.
type Window struct {
	Open  int
	Close int
	Step  int
}

// BusinessWindow is 08:00-22:00 in one-hour slots.
var BusinessWindow = MustWindow(BusinessOpen, BusinessClose, SlotMinutes)

// NewWindow validates the window. Slots never wrap past midnight: a window
// that would need a slot ending after 24:00 is rejected.
func NewWindow(open, close, step int) (Window, error) {
	switch {
	case step <= 0:
		return Window{}, fmt.Errorf("slot length must be positive, got %d", step)
	case open < 0 || open >= minutesPerDay:
		return Window{}, fmt.Errorf("opening time %d out of range", open)
	case close <= open:
		return Window{}, fmt.Errorf("closing time must be after opening time")
	case close > minutesPerDay:
		return Window{}, fmt.Errorf("business window crosses midnight")
	case (close-open)%step != 0:
		return Window{}, fmt.Errorf("window of %d minutes is not a multiple of %d", close-open, step)
	}
	return Window{Open: open, Close: close, Step: step}, nil
}

func MustWindow(open, close, step int) Window {
	w, err := NewWindow(open, close, step)
	if err != nil {
		panic(err)
	}
	return w
}

// Slots lists every candidate slot in ascending order.
func (w Window) Slots() []Slot {
	out := make([]Slot, 0, (w.Close-w.Open)/w.Step)
	for start := w.Open; start < w.Close; start += w.Step {
		out = append(out, Slot{Start: start, End: start + w.Step})
	}
	return out
}

// ComputeSlots returns the candidate slots of w that overlap none of booked.
func ComputeSlots(w Window, booked []Slot) []Slot {
	available := make([]Slot, 0, len(w.Slots()))
	for _, cand := range w.Slots() {
		free := true
		for _, b := range booked {
			if cand.Overlaps(b) {
				free = false
				break
			}
		}
		if free {
			available = append(available, cand)
		}
	}
	return available
}

// FreeBlocks merges touching available slots into contiguous free blocks.
func FreeBlocks(available []Slot) []Slot {
	var blocks []Slot
	for _, s := range available {
		if n := len(blocks); n > 0 && blocks[n-1].End == s.Start {
			blocks[n-1].End = s.End
			continue
		}
		blocks = append(blocks, s)
	}
	return blocks
}

// FitsAvailableSlot reports whether req lies wholly inside one contiguous
// free block of the available slots.
//
// Touching slots are merged first instead of requiring one generated
// slot to contain req. Containment in one slot would reject ordinary
// requests such as 09:00-11:00 or 09:30-10:15, which must be bookable on an
// empty day. Keep the merge.
func FitsAvailableSlot(available []Slot, req Slot) bool {
	for _, b := range FreeBlocks(available) {
		if b.Contains(req) {
			return true
		}
	}
	return false
}
