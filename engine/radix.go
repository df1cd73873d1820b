package engine

import "fmt"

const radixBuckets = 16

// SortDescending is a stable LSD radix sort on hex digits, highest value first.
// Values must be non-negative.
func SortDescending(cells []EvaluatedCell) {
	switch len(cells) {
	case 0, 1:
		return
	case 2:
		if cells[0].Value < cells[1].Value {
			cells[0], cells[1] = cells[1], cells[0]
		}
		return
	}

	digits := 0
	for _, c := range cells {
		if c.Value < 0 {
			panic(fmt.Sprintf("engine: cannot radix sort negative value %d at %s", c.Value, c.Cell))
		}
		if d := hexDigits(c.Value); d > digits {
			digits = d
		}
	}

	src := cells
	dst := make([]EvaluatedCell, len(cells))
	for d := 0; d < digits; d++ {
		shift := uint(d * 4)
		var counts [radixBuckets]int
		for _, c := range src {
			counts[(c.Value>>shift)&0xF]++
		}
		var offsets [radixBuckets]int
		pos := 0
		for b := radixBuckets - 1; b >= 0; b-- {
			offsets[b] = pos
			pos += counts[b]
		}
		for _, c := range src {
			b := (c.Value >> shift) & 0xF
			dst[offsets[b]] = c
			offsets[b]++
		}
		src, dst = dst, src
	}
	if digits%2 == 1 {
		copy(cells, src)
	}
}

func hexDigits(v int32) int {
	digits := 1
	for v >= 0x10 {
		v >>= 4
		digits++
	}
	return digits
}
