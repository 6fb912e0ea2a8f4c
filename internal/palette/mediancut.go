package palette

import (
	"math"
	"sort"
)

type entry struct {
	c rgb
	n int
}

// box is a set of histogram entries that will be represented by one color.
type box struct {
	entries []entry
	count   int
}

// span returns the channel with the widest value range and that range.
func (b *box) span() (channel int, width int) {
	lo := [3]int{255, 255, 255}
	hi := [3]int{0, 0, 0}
	for _, e := range b.entries {
		v := [3]int{int(e.c.R), int(e.c.G), int(e.c.B)}
		for ch := range v {
			lo[ch] = min(lo[ch], v[ch])
			hi[ch] = max(hi[ch], v[ch])
		}
	}
	for ch := 0; ch < 3; ch++ {
		if w := hi[ch] - lo[ch]; w > width {
			channel, width = ch, w
		}
	}
	return channel, width
}

// split sorts the entries along channel and cuts the box where the running
// population first reaches half of the total. Both halves are non-empty.
func (b *box) split(channel int) (box, box) {
	sort.Slice(b.entries, func(i, j int) bool {
		vi, vj := channelValue(b.entries[i].c, channel), channelValue(b.entries[j].c, channel)
		if vi != vj {
			return vi < vj
		}
		return b.entries[i].c.key() < b.entries[j].c.key()
	})

	cut, acc := 1, 0
	for i, e := range b.entries {
		acc += e.n
		if 2*acc >= b.count {
			cut = i + 1
			break
		}
	}
	cut = min(max(cut, 1), len(b.entries)-1)
	return newBox(b.entries[:cut]), newBox(b.entries[cut:])
}

// mean returns the population-weighted mean color of the box.
func (b *box) mean() rgb {
	var r, g, bl float64
	for _, e := range b.entries {
		n := float64(e.n)
		r += float64(e.c.R) * n
		g += float64(e.c.G) * n
		bl += float64(e.c.B) * n
	}
	total := float64(b.count)
	return rgb{
		uint8(math.Round(r / total)),
		uint8(math.Round(g / total)),
		uint8(math.Round(bl / total)),
	}
}

func newBox(entries []entry) box {
	b := box{entries: entries}
	for _, e := range entries {
		b.count += e.n
	}
	return b
}

func channelValue(c rgb, channel int) uint8 {
	switch channel {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

// medianCut builds a palette of at most k colors from hist. The box with
// the widest channel span is split first; ties go to the more populous box.
func medianCut(hist map[uint32]int, k int) []rgb {
	keys := make([]uint32, 0, len(hist))
	for key := range hist {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	entries := make([]entry, len(keys))
	for i, key := range keys {
		entries[i] = entry{c: rgbFromKey(key), n: hist[key]}
	}

	boxes := []box{newBox(entries)}
	for len(boxes) < k {
		pick, pickChannel, pickWidth := -1, 0, 0
		for i := range boxes {
			if len(boxes[i].entries) < 2 {
				continue
			}
			ch, w := boxes[i].span()
			if w > pickWidth || (w == pickWidth && pick >= 0 && boxes[i].count > boxes[pick].count) {
				pick, pickChannel, pickWidth = i, ch, w
			}
		}
		if pick < 0 {
			break
		}
		left, right := boxes[pick].split(pickChannel)
		boxes[pick] = left
		boxes = append(boxes, right)
	}

	pal := make([]rgb, 0, len(boxes))
	seen := make(map[rgb]bool, len(boxes))
	for i := range boxes {
		c := boxes[i].mean()
		if seen[c] {
			continue
		}
		seen[c] = true
		pal = append(pal, c)
	}
	return pal
}
