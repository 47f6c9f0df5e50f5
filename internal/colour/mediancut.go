package colour

import (
	"container/heap"
	"context"
	"image"
	"math"
	"slices"
)

// quantizeBits is the per-channel precision of the colour histogram.
const quantizeBits = 5

const quantizeMask = (1 << quantizeBits) - 1

// MedianCutQuantizer builds swatches by recursively splitting the colour
// histogram's bounding boxes, largest volume first, at the population median.
type MedianCutQuantizer struct{}

// NewMedianCutQuantizer creates a new MedianCutQuantizer.
func NewMedianCutQuantizer() *MedianCutQuantizer {
	return &MedianCutQuantizer{}
}

// Quantize implements Quantizer.
func (q *MedianCutQuantizer) Quantize(ctx context.Context, img image.Image, opts Options) (*Palette, error) {
	pixels, err := prepare(img, opts)
	if err != nil {
		return nil, err
	}

	hist := make(map[uint16]int)
	for _, p := range pixels {
		hist[pack555(p)]++
	}

	colours := make([]uint16, 0, len(hist))
	for c := range hist {
		if Allowed(opts.Filters, approximate(c)) {
			colours = append(colours, c)
		} else {
			delete(hist, c)
		}
	}
	// Map iteration is random; sort so results are reproducible.
	slices.Sort(colours)

	if len(colours) <= opts.MaxColors {
		swatches := make([]Swatch, 0, len(colours))
		for _, c := range colours {
			swatches = append(swatches, NewSwatch(RGBToColor(approximate(c)), hist[c]))
		}
		return NewPalette(swatches, opts.Targets), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxes := splitBoxes(colours, hist, opts.MaxColors)

	swatches := make([]Swatch, 0, len(boxes))
	for _, b := range boxes {
		rgb, population := b.average(colours, hist)
		if !Allowed(opts.Filters, rgb) {
			continue
		}
		swatches = append(swatches, NewSwatch(RGBToColor(rgb), population))
	}

	return NewPalette(swatches, opts.Targets), nil
}

// splitBoxes splits the largest box until maxColors boxes exist or no box
// can be split further.
func splitBoxes(colours []uint16, hist map[uint16]int, maxColors int) []*vbox {
	queue := &vboxQueue{}
	heap.Push(queue, newVbox(colours, hist, 0, len(colours)-1))

	for queue.Len() < maxColors {
		b := heap.Pop(queue).(*vbox)
		if !b.canSplit() {
			heap.Push(queue, b)
			break
		}
		heap.Push(queue, b.split(colours, hist))
		heap.Push(queue, b)
	}

	return *queue
}

// vbox is a contiguous range of the colour slice and its bounding box.
type vbox struct {
	lower, upper int
	population   int

	minR, maxR uint8
	minG, maxG uint8
	minB, maxB uint8
}

func newVbox(colours []uint16, hist map[uint16]int, lower, upper int) *vbox {
	b := &vbox{lower: lower, upper: upper}
	b.fit(colours, hist)
	return b
}

func (b *vbox) fit(colours []uint16, hist map[uint16]int) {
	b.minR, b.minG, b.minB = math.MaxUint8, math.MaxUint8, math.MaxUint8
	b.maxR, b.maxG, b.maxB = 0, 0, 0
	b.population = 0

	for _, c := range colours[b.lower : b.upper+1] {
		r, g, bl := unpack555(c)
		b.minR, b.maxR = min(b.minR, r), max(b.maxR, r)
		b.minG, b.maxG = min(b.minG, g), max(b.maxG, g)
		b.minB, b.maxB = min(b.minB, bl), max(b.maxB, bl)
		b.population += hist[c]
	}
}

func (b *vbox) volume() int {
	return (int(b.maxR-b.minR) + 1) * (int(b.maxG-b.minG) + 1) * (int(b.maxB-b.minB) + 1)
}

func (b *vbox) canSplit() bool {
	return b.upper > b.lower
}

// longestDimension returns 0, 1 or 2 for red, green or blue.
func (b *vbox) longestDimension() int {
	r := b.maxR - b.minR
	g := b.maxG - b.minG
	bl := b.maxB - b.minB
	switch {
	case r >= g && r >= bl:
		return 0
	case g >= r && g >= bl:
		return 1
	default:
		return 2
	}
}

// split sorts the box along its longest side, shrinks it to the lower half
// and returns the upper half as a new box.
func (b *vbox) split(colours []uint16, hist map[uint16]int) *vbox {
	dim := b.longestDimension()
	span := colours[b.lower : b.upper+1]
	slices.SortFunc(span, func(x, y uint16) int {
		if d := channel(x, dim) - channel(y, dim); d != 0 {
			return d
		}
		return int(x) - int(y)
	})

	splitPoint := b.lower
	midPoint := b.population / 2
	count := 0
	for i := b.lower; i <= b.upper; i++ {
		count += hist[colours[i]]
		if count >= midPoint {
			splitPoint = min(b.upper-1, i)
			break
		}
	}

	upper := newVbox(colours, hist, splitPoint+1, b.upper)
	b.upper = splitPoint
	b.fit(colours, hist)
	return upper
}

// average returns the population-weighted mean colour of the box.
func (b *vbox) average(colours []uint16, hist map[uint16]int) (RGB, int) {
	var rSum, gSum, bSum, total int
	for _, c := range colours[b.lower : b.upper+1] {
		n := hist[c]
		r, g, bl := unpack555(c)
		rSum += int(r) * n
		gSum += int(g) * n
		bSum += int(bl) * n
		total += n
	}
	if total == 0 {
		return RGB{}, 0
	}

	mean := func(sum int) uint8 {
		return uint8(math.Round(float64(sum) / float64(total)))
	}
	return widen(mean(rSum), mean(gSum), mean(bSum)), total
}

// vboxQueue orders boxes by descending volume.
type vboxQueue []*vbox

func (q vboxQueue) Len() int           { return len(q) }
func (q vboxQueue) Less(i, j int) bool { return q[i].volume() > q[j].volume() }
func (q vboxQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *vboxQueue) Push(x any) {
	*q = append(*q, x.(*vbox))
}

func (q *vboxQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func pack555(c RGB) uint16 {
	return uint16(c.R>>3)<<(2*quantizeBits) | uint16(c.G>>3)<<quantizeBits | uint16(c.B>>3)
}

func unpack555(c uint16) (r, g, b uint8) {
	return uint8(c >> (2 * quantizeBits) & quantizeMask),
		uint8(c >> quantizeBits & quantizeMask),
		uint8(c & quantizeMask)
}

func channel(c uint16, dim int) int {
	r, g, b := unpack555(c)
	switch dim {
	case 0:
		return int(r)
	case 1:
		return int(g)
	default:
		return int(b)
	}
}

// approximate widens a packed 5-bit colour back to 8 bits per channel.
func approximate(c uint16) RGB {
	return widen(unpack555(c))
}

func widen(r, g, b uint8) RGB {
	const shift = 8 - quantizeBits
	return RGB{R: r << shift, G: g << shift, B: b << shift}
}
