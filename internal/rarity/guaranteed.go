package rarity

import (
	"fmt"

	"github.com/roach88/resin/internal/ir"
)

// GuaranteedSchedule places pre-specified attribute sets at evenly spaced
// item indices.
//
// With amount items and g rolls the slot width is amount/(g+1) (integer
// division). Slots are the positive multiples of the width; each slot pops
// the next roll from the queue, and once the queue is empty later multiples
// are rolled normally.
type GuaranteedSchedule struct {
	width  int
	placed int
	layers []string
	queue  [][]string
}

// NewGuaranteedSchedule validates rolls against layers and computes the slot
// width. Each roll must hold one value per layer, meta layers included.
func NewGuaranteedSchedule(amount int, layers []string, rolls [][]string) (*GuaranteedSchedule, error) {
	s := &GuaranteedSchedule{layers: layers}
	if len(rolls) == 0 {
		return s, nil
	}

	for i, roll := range rolls {
		if len(roll) != len(layers) {
			return nil, NewConfigError(ErrCodeGuaranteedLength, "", fmt.Sprintf("guaranteedAttributeRolls[%d]", i),
				"roll has %d values but %d layers are declared", len(roll), len(layers))
		}
	}

	s.width = amount / (len(rolls) + 1)
	if s.width == 0 {
		return nil, NewConfigError(ErrCodeGuaranteedOverflow, "", "",
			"%d guaranteed rolls cannot be spaced across %d items", len(rolls), amount)
	}

	s.queue = make([][]string, len(rolls))
	copy(s.queue, rolls)
	return s, nil
}

// Width returns the spacing between slots, or 0 when there are no rolls.
func (s *GuaranteedSchedule) Width() int {
	return s.width
}

// Remaining returns the number of rolls not yet placed.
func (s *GuaranteedSchedule) Remaining() int {
	return len(s.queue)
}

// Slots returns the indices the remaining rolls will occupy.
func (s *GuaranteedSchedule) Slots() []int {
	slots := make([]int, len(s.queue))
	for k := range s.queue {
		slots[k] = (s.placed + k + 1) * s.width
	}
	return slots
}

// IsSlot reports whether index is an insertion slot with a roll waiting.
func (s *GuaranteedSchedule) IsSlot(index int) bool {
	return len(s.queue) > 0 && index > 0 && index%s.width == 0
}

// Pending returns the rolls not yet placed, zipped with the layer order.
func (s *GuaranteedSchedule) Pending() []ir.AttributeSet {
	sets := make([]ir.AttributeSet, len(s.queue))
	for k, roll := range s.queue {
		sets[k] = s.zip(roll)
	}
	return sets
}

// Next pops the roll for index if index is a slot and zips it with the
// layer order. Values are kept verbatim, extensions included.
func (s *GuaranteedSchedule) Next(index int) (ir.AttributeSet, bool) {
	if !s.IsSlot(index) {
		return nil, false
	}

	roll := s.queue[0]
	s.queue = s.queue[1:]
	s.placed++
	return s.zip(roll), true
}

func (s *GuaranteedSchedule) zip(roll []string) ir.AttributeSet {
	set := make(ir.AttributeSet, len(s.layers))
	for i, layer := range s.layers {
		set[i] = ir.Trait{Layer: layer, Value: roll[i]}
	}
	return set
}
