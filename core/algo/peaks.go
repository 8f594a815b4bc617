package algo

import (
	"math"
	"sort"
)

// PeakOptions filter the candidate maxima returned by FindPeaks.
// Zero values disable the corresponding filter.
type PeakOptions struct {
	Height   float64 // Minimum sample value at the peak
	Distance int     // Minimum index separation between kept peaks
}

// Peak describes one detected local maximum.
type Peak struct {
	Index      int     // Sample index (plateau midpoint)
	Height     float64 // Sample value at Index
	Prominence float64 // Height above the higher of the two surrounding bases
	Width      float64 // Width in samples at half prominence
	LeftIP     float64 // Interpolated left crossing of the half-prominence line
	RightIP    float64 // Interpolated right crossing of the half-prominence line
}

// FindPeaks locates local maxima, applies the height and distance filters,
// and measures prominence and width at half prominence for each survivor.
// Peaks are returned in index order.
func FindPeaks(data []float64, opts PeakOptions) []Peak {
	candidates := localMaxima(data)

	if opts.Height != 0 {
		kept := candidates[:0]
		for _, idx := range candidates {
			if data[idx] >= opts.Height {
				kept = append(kept, idx)
			}
		}
		candidates = kept
	}

	if opts.Distance > 1 {
		candidates = selectByDistance(data, candidates, opts.Distance)
	}

	peaks := make([]Peak, len(candidates))
	for i, idx := range candidates {
		prom, leftBase, rightBase := prominence(data, idx)
		leftIP, rightIP := halfWidth(data, idx, prom, leftBase, rightBase)
		peaks[i] = Peak{
			Index:      idx,
			Height:     data[idx],
			Prominence: prom,
			Width:      rightIP - leftIP,
			LeftIP:     leftIP,
			RightIP:    rightIP,
		}
	}
	return peaks
}

// localMaxima returns the midpoints of strict local maxima, including flat tops.
func localMaxima(data []float64) []int {
	var out []int
	n := len(data)
	i := 1
	for i < n-1 {
		if data[i-1] < data[i] {
			ahead := i + 1
			for ahead < n-1 && data[ahead] == data[i] {
				ahead++
			}
			if data[ahead] < data[i] {
				out = append(out, (i+ahead-1)/2)
				i = ahead
				continue
			}
		}
		i++
	}
	return out
}

// selectByDistance keeps the highest peaks first and drops neighbors closer than distance.
func selectByDistance(data []float64, peaks []int, distance int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return data[peaks[order[a]]] > data[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	out := make([]int, 0, len(peaks))
	for i, idx := range peaks {
		if keep[i] {
			out = append(out, idx)
		}
	}
	return out
}

// prominence walks outward until a higher sample or the edge, tracking the minimum on each side.
func prominence(data []float64, peak int) (float64, int, int) {
	top := data[peak]

	leftBase, leftMin := peak, top
	for i := peak; i >= 0 && data[i] <= top; i-- {
		if data[i] < leftMin {
			leftMin, leftBase = data[i], i
		}
	}

	rightBase, rightMin := peak, top
	for i := peak; i < len(data) && data[i] <= top; i++ {
		if data[i] < rightMin {
			rightMin, rightBase = data[i], i
		}
	}

	return top - math.Max(leftMin, rightMin), leftBase, rightBase
}

// halfWidth finds the interpolated crossings of the half-prominence line inside the bases.
func halfWidth(data []float64, peak int, prom float64, leftBase, rightBase int) (float64, float64) {
	height := data[peak] - prom/2

	i := peak
	for leftBase < i && height < data[i] {
		i--
	}
	left := float64(i)
	if data[i] < height {
		left += (height - data[i]) / (data[i+1] - data[i])
	}

	i = peak
	for i < rightBase && height < data[i] {
		i++
	}
	right := float64(i)
	if data[i] < height {
		right -= (height - data[i]) / (data[i-1] - data[i])
	}

	return left, right
}
