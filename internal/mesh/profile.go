package mesh

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	// noiseFraction is the share of the strongest boundary below which a
	// local maximum is treated as noise and never snapped to.
	noiseFraction = 0.05

	// salientFraction is the share of the strongest boundary a maximum
	// needs to take part in stride estimation.
	salientFraction = 0.25

	// minStride is the smallest spacing, in profile samples, accepted as a
	// grid. Anything finer cannot be told apart from pixel noise.
	minStride = 2

	// minFit is the share of salient gaps that must be whole multiples of
	// the estimated stride for the estimate to be trusted.
	minFit = 0.5

	// maxMultiple bounds how many missing lines a single gap may span.
	maxMultiple = 8
)

// profile is the edge energy along one axis. Index p holds the energy of the
// boundary in front of sample p, so indices 0 and len-1 (the axis ends) are
// always zero.
type profile []float64

// edgeProfiles builds the column and row edge-energy profiles of img.
//
// The distance between two pixels is taken over alpha-premultiplied RGB plus
// alpha, so line art that differs only in transparency still produces edges
// and fully transparent pixels compare equal whatever RGB they hide.
func edgeProfiles(img *image.NRGBA) (px, py profile) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	px = make(profile, w+1)
	py = make(profile, h+1)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 1; x < w; x++ {
			px[x] += pixelDistance(row[(x-1)*4:x*4], row[x*4:(x+1)*4])
		}
	}
	for y := 1; y < h; y++ {
		prev := img.Pix[(y-1)*img.Stride : (y-1)*img.Stride+w*4]
		cur := img.Pix[y*img.Stride : y*img.Stride+w*4]
		var sum float64
		for x := 0; x < w; x++ {
			sum += pixelDistance(prev[x*4:(x+1)*4], cur[x*4:(x+1)*4])
		}
		py[y] = sum
	}
	return px, py
}

func pixelDistance(p, q []uint8) float64 {
	if p[0] == q[0] && p[1] == q[1] && p[2] == q[2] && p[3] == q[3] {
		return 0
	}
	pa, qa := float64(p[3])/255, float64(q[3])/255
	dr := float64(p[0])*pa - float64(q[0])*qa
	dg := float64(p[1])*pa - float64(q[1])*qa
	db := float64(p[2])*pa - float64(q[2])*qa
	da := float64(p[3]) - float64(q[3])
	return math.Sqrt(dr*dr + dg*dg + db*db + da*da)
}

// axisFit is the periodic structure found along one axis.
type axisFit struct {
	energy profile // smoothed profile the fit was measured on
	stride float64 // spacing between lines, in profile samples
	anchor int     // position of the strongest boundary
	peaks  []bool  // peaks[p] marks a snappable local maximum
	ok     bool
}

// smooth convolves the profile with a triangular kernel of the given radius.
//
// Nearest-neighbor upscaling leaves exact zeros between the boundaries of
// replicated source pixels, and anti-aliasing spreads one logical boundary
// over neighboring source boundaries. Smoothing over one source pixel on
// each side merges such a spread into a single maximum at its center.
func (e profile) smooth(radius int) profile {
	if radius <= 0 {
		return e
	}
	out := make(profile, len(e))
	for p := 1; p < len(e)-1; p++ {
		var sum float64
		for d := -radius; d <= radius; d++ {
			q := p + d
			if q < 1 || q >= len(e)-1 {
				continue
			}
			sum += e[q] * float64(radius+1-abs(d))
		}
		out[p] = sum
	}
	return out
}

// analyze estimates the grid stride of one axis whose samples were
// upscaled by factor.
//
// Blurred or anti-aliased art can leave a cluster of salient maxima one
// source pixel apart around a single logical boundary. Such clusters are
// also fitted as one peak each, and that fit wins when it explains the
// boundaries at least as well and no cluster is wider than half its stride.
func (e profile) analyze(factor int) axisFit {
	length := len(e) - 1
	if length < 2 {
		return axisFit{}
	}
	e = e.smooth(factor)
	maxE := floats.Max(e)
	if maxE <= 0 {
		return axisFit{}
	}

	fit := axisFit{
		energy: e,
		anchor: floats.MaxIdx(e),
		peaks:  make([]bool, len(e)),
	}
	maxima := e.localMaxima(maxE * noiseFraction)
	var salient []int
	for _, p := range maxima {
		if e[p] >= maxE*salientFraction {
			salient = append(salient, p)
		}
	}

	stride, ok := fitPeaks(salient)
	reps, span := e.mergeClusters(salient, 2*factor)
	if len(reps) < len(salient) {
		merged, mok := fitPeaks(reps)
		if mok && (!ok || merged.support >= stride.support) && float64(span) <= merged.stride/2 {
			// Only representatives stay snappable among salient peaks.
			dropped := make(map[int]bool, len(salient))
			for _, p := range salient {
				dropped[p] = true
			}
			for _, p := range reps {
				dropped[p] = false
			}
			for _, p := range maxima {
				fit.peaks[p] = !dropped[p]
			}
			fit.anchor = reps[0]
			for _, p := range reps[1:] {
				if e[p] > e[fit.anchor] {
					fit.anchor = p
				}
			}
			fit.stride = merged.stride
			fit.ok = true
			return fit
		}
	}

	for _, p := range maxima {
		fit.peaks[p] = true
	}
	if ok {
		fit.stride = stride.stride
		fit.ok = true
	}
	return fit
}

type strideFit struct {
	stride  float64
	support float64
}

// fitPeaks estimates the stride of a sorted peak list and reports whether
// it is fine enough and well enough supported to be trusted.
func fitPeaks(peaks []int) (strideFit, bool) {
	if len(peaks) < 2 {
		return strideFit{}, false
	}
	gaps := make([]int, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		gaps[i-1] = peaks[i] - peaks[i-1]
	}
	stride, support := estimateStride(gaps)
	return strideFit{stride, support}, stride >= minStride && support >= minFit
}

// mergeClusters groups sorted peaks whose neighbors lie closer than
// minGap and returns one representative per group: the member nearest to
// the energy-weighted centroid, the stronger one on ties. The second result
// is the widest group's extent.
func (e profile) mergeClusters(peaks []int, minGap int) ([]int, int) {
	var reps []int
	span := 0
	for i := 0; i < len(peaks); {
		j := i
		for j+1 < len(peaks) && peaks[j+1]-peaks[j] < minGap {
			j++
		}
		group := peaks[i : j+1]
		span = max(span, group[len(group)-1]-group[0])

		var total, moment float64
		for _, p := range group {
			total += e[p]
			moment += float64(p) * e[p]
		}
		center := moment / total
		best := group[0]
		for _, p := range group[1:] {
			d, bd := math.Abs(float64(p)-center), math.Abs(float64(best)-center)
			if d < bd || (d == bd && e[p] > e[best]) {
				best = p
			}
		}
		reps = append(reps, best)
		i = j + 1
	}
	return reps, span
}

// localMaxima returns the positions of maxima at or above floor. A plateau
// of equal values counts once, at its center.
func (e profile) localMaxima(floor float64) []int {
	length := len(e) - 1
	var peaks []int
	for i := 1; i < length; {
		if e[i] <= 0 || e[i] < floor {
			i++
			continue
		}
		j := i
		for j+1 < length && e[j+1] == e[i] {
			j++
		}
		if e[i] > e[i-1] && e[i] > e[j+1] {
			peaks = append(peaks, (i+j)/2)
		}
		i = j + 1
	}
	return peaks
}

// gapTolerance is how far a gap may stray from g and still count as g.
func gapTolerance(g int) int {
	if g < 4 {
		return 0
	}
	return max(1, g/8)
}

// estimateStride picks the modal gap and refines it to a fractional stride.
//
// The modal gap is the gap value supported by the most gaps within
// tolerance, ties going to the smaller value. Every gap that is close to a
// whole multiple of the mode then contributes to the refined stride, which
// absorbs grids whose true spacing is not an integer. The second result is
// the fraction of gaps that fitted.
func estimateStride(gaps []int) (float64, float64) {
	if len(gaps) == 0 {
		return 0, 0
	}
	distinct := append([]int(nil), gaps...)
	sort.Ints(distinct)

	mode, best := 0, -1
	for i, g := range distinct {
		if i > 0 && g == distinct[i-1] {
			continue
		}
		tol := gapTolerance(g)
		support := 0
		for _, other := range gaps {
			if abs(other-g) <= tol {
				support++
			}
		}
		if support > best {
			mode, best = g, support
		}
	}
	if mode <= 0 {
		return 0, 0
	}

	tol := gapTolerance(mode)
	var spans, multiples []float64
	for _, g := range gaps {
		m := int(math.Round(float64(g) / float64(mode)))
		if m < 1 || m > maxMultiple {
			continue
		}
		if abs(g-m*mode) > m*tol {
			continue
		}
		spans = append(spans, float64(g))
		multiples = append(multiples, float64(m))
	}
	if len(spans) == 0 {
		return float64(mode), 0
	}
	return floats.Sum(spans) / floats.Sum(multiples), float64(len(spans)) / float64(len(gaps))
}

// lines lays out grid lines for an axis of the given length.
//
// Candidates sit at anchor + n*stride. Each is snapped to the strongest
// peak within a quarter stride, which keeps a slightly wrong stride from
// drifting across the image. Lines closer than half a stride to an axis end
// or to the previous line are dropped. The result always starts at 0 and
// ends at length.
func (fit axisFit) lines(length int) []int {
	stride := fit.stride
	window := max(1, int(stride/4))
	minGap := max(1, int(stride/2))
	margin := stride / 2

	start := float64(fit.anchor) - math.Floor(float64(fit.anchor)/stride)*stride
	var candidates []int
	for n := 0; ; n++ {
		p := start + float64(n)*stride
		if p >= float64(length) {
			break
		}
		pos := int(math.Round(p))
		if float64(pos) < margin || float64(pos) > float64(length)-margin {
			continue
		}
		candidates = append(candidates, fit.snap(pos, window))
	}
	sort.Ints(candidates)

	out := []int{0}
	for _, pos := range candidates {
		if pos-out[len(out)-1] < minGap || length-pos < minGap {
			continue
		}
		out = append(out, pos)
	}
	return append(out, length)
}

// snap moves pos to the strongest peak within window, preferring the
// closest one on ties. Without a peak in reach pos is returned unchanged.
func (fit axisFit) snap(pos, window int) int {
	e := fit.energy
	best, bestE := pos, -1.0
	for q := pos - window; q <= pos+window; q++ {
		if q < 1 || q >= len(e)-1 || q >= len(fit.peaks) || !fit.peaks[q] {
			continue
		}
		if e[q] > bestE || (e[q] == bestE && abs(q-pos) < abs(best-pos)) {
			best, bestE = q, e[q]
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
