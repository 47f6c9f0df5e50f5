package colour

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"
	"math"
	"math/rand"
)

// KMeansQuantizer implements quantization using k-means clustering.
type KMeansQuantizer struct {
	maxIterations int
	convergence   float64
	maxSamples    int

	// seed overrides the content-derived seed when set.
	seed *int64
}

// NewKMeansQuantizer creates a new KMeansQuantizer with default settings.
func NewKMeansQuantizer() *KMeansQuantizer {
	return &KMeansQuantizer{
		maxIterations: 20,
		convergence:   2.0,
		maxSamples:    5000,
	}
}

// WithSeed fixes the random seed used to place the initial centroids.
func (q *KMeansQuantizer) WithSeed(seed int64) *KMeansQuantizer {
	q.seed = &seed
	return q
}

// Quantize implements Quantizer. Swatch populations are the number of
// sampled pixels assigned to each cluster.
func (q *KMeansQuantizer) Quantize(ctx context.Context, img image.Image, opts Options) (*Palette, error) {
	all, err := prepare(img, opts)
	if err != nil {
		return nil, err
	}

	pixels := make([]RGB, 0, len(all))
	for _, p := range q.sample(all) {
		if Allowed(opts.Filters, p) {
			pixels = append(pixels, p)
		}
	}
	if len(pixels) == 0 {
		return NewPalette(nil, opts.Targets), nil
	}

	// Count unique colours first.
	counts := make(map[RGB]int)
	unique := make([]RGB, 0)
	for _, p := range pixels {
		if counts[p] == 0 {
			unique = append(unique, p)
		}
		counts[p]++
	}

	// If we want more colours than unique colours exist, every colour is a swatch.
	if opts.MaxColors >= len(unique) {
		swatches := make([]Swatch, len(unique))
		for i, c := range unique {
			swatches[i] = NewSwatch(RGBToColor(c), counts[c])
		}
		return NewPalette(swatches, opts.Targets), nil
	}

	seed := contentSeed(pixels)
	if q.seed != nil {
		seed = *q.seed
	}
	// #nosec G404 -- deterministic clustering, not cryptography
	rng := rand.New(rand.NewSource(seed))

	centroids, sizes, err := q.kmeans(ctx, rng, pixels, opts.MaxColors)
	if err != nil {
		return nil, err
	}

	swatches := make([]Swatch, 0, len(centroids))
	for i, c := range centroids {
		if sizes[i] == 0 {
			continue
		}
		rgb := RGB{R: clampChannel(c.R), G: clampChannel(c.G), B: clampChannel(c.B)}
		if !Allowed(opts.Filters, rgb) {
			continue
		}
		swatches = append(swatches, NewSwatch(RGBToColor(rgb), sizes[i]))
	}

	return NewPalette(swatches, opts.Targets), nil
}

// point3D represents a point in 3D RGB color space.
type point3D struct {
	R, G, B float64
}

// distance calculates the Euclidean distance between two points in RGB space.
func (p point3D) distance(other point3D) float64 {
	dr := p.R - other.R
	dg := p.G - other.G
	db := p.B - other.B
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// sample grid-samples the pixels down to maxSamples.
func (q *KMeansQuantizer) sample(pixels []RGB) []RGB {
	if len(pixels) <= q.maxSamples {
		return pixels
	}

	step := max(len(pixels)/q.maxSamples, 1)
	sampled := make([]RGB, 0, q.maxSamples)
	for i := 0; i < len(pixels) && len(sampled) < q.maxSamples; i += step {
		sampled = append(sampled, pixels[i])
	}
	return sampled
}

// contentSeed derives a deterministic seed from the pixel data, so the same
// image always clusters the same way.
func contentSeed(pixels []RGB) int64 {
	hasher := sha256.New()
	step := max(len(pixels)/1000, 1)
	buf := make([]byte, 3)
	for i := 0; i < len(pixels); i += step {
		buf[0], buf[1], buf[2] = pixels[i].R, pixels[i].G, pixels[i].B
		hasher.Write(buf)
	}
	hash := hasher.Sum(nil)
	return int64(binary.LittleEndian.Uint64(hash[:8]))
}

// kmeans performs k-means clustering on the pixel data.
// Returns centroids and the number of pixels assigned to each.
func (q *KMeansQuantizer) kmeans(ctx context.Context, rng *rand.Rand, pixels []RGB, k int) ([]point3D, []int, error) {
	points := make([]point3D, len(pixels))
	for i, p := range pixels {
		points[i] = point3D{R: float64(p.R), G: float64(p.G), B: float64(p.B)}
	}

	// Initialize centroids using k-means++ algorithm
	centroids := q.initializeCentroidsKMeansPlusPlus(rng, points, k)

	assignments := make([]int, len(points))

	for iter := 0; iter < q.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		changed := 0
		for i, point := range points {
			nearest := q.findNearestCentroid(point, centroids)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed++
			}
		}

		// If very few assignments changed (< 1%), we've converged
		if iter > 0 && float64(changed)/float64(len(points)) < 0.01 {
			break
		}

		newCentroids := q.recalculateCentroids(rng, points, assignments, k)

		totalMovement := 0.0
		for i := range centroids {
			totalMovement += centroids[i].distance(newCentroids[i])
		}
		centroids = newCentroids

		// If centroids barely moved, we've converged
		if totalMovement/float64(k) < q.convergence {
			break
		}
	}

	// Final assignment against the settled centroids.
	sizes := make([]int, k)
	for _, point := range points {
		sizes[q.findNearestCentroid(point, centroids)]++
	}

	return centroids, sizes, nil
}

// initializeCentroidsKMeansPlusPlus initializes centroids using k-means++ algorithm.
// This provides better initial centroids than random selection.
func (q *KMeansQuantizer) initializeCentroidsKMeansPlusPlus(rng *rand.Rand, points []point3D, k int) []point3D {
	if len(points) == 0 || k == 0 {
		return []point3D{}
	}

	centroids := make([]point3D, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	for len(centroids) < k {
		distances := make([]float64, len(points))
		totalDistance := 0.0

		for i, point := range points {
			minDist := math.MaxFloat64
			for _, centroid := range centroids {
				minDist = math.Min(minDist, point.distance(centroid))
			}
			distances[i] = minDist * minDist
			totalDistance += distances[i]
		}

		if totalDistance == 0 {
			// Every point sits on a centroid; nudge a duplicate so k is reached.
			last := centroids[len(centroids)-1]
			centroids = append(centroids, point3D{R: last.R + 0.1, G: last.G + 0.1, B: last.B + 0.1})
			continue
		}

		target := rng.Float64() * totalDistance
		cumulative := 0.0
		for i, dist := range distances {
			cumulative += dist
			if cumulative >= target {
				centroids = append(centroids, points[i])
				break
			}
		}
	}

	return centroids
}

// findNearestCentroid finds the index of the nearest centroid to a point.
func (q *KMeansQuantizer) findNearestCentroid(point point3D, centroids []point3D) int {
	minDist := math.MaxFloat64
	nearest := 0

	for i, centroid := range centroids {
		if dist := point.distance(centroid); dist < minDist {
			minDist = dist
			nearest = i
		}
	}

	return nearest
}

// recalculateCentroids recalculates centroid positions based on assigned points.
func (q *KMeansQuantizer) recalculateCentroids(rng *rand.Rand, points []point3D, assignments []int, k int) []point3D {
	sums := make([]point3D, k)
	counts := make([]int, k)

	for i, point := range points {
		cluster := assignments[i]
		sums[cluster].R += point.R
		sums[cluster].G += point.G
		sums[cluster].B += point.B
		counts[cluster]++
	}

	centroids := make([]point3D, k)
	for i := range k {
		if counts[i] > 0 {
			centroids[i] = point3D{
				R: sums[i].R / float64(counts[i]),
				G: sums[i].G / float64(counts[i]),
				B: sums[i].B / float64(counts[i]),
			}
		} else {
			// Empty cluster - reinitialize randomly
			centroids[i] = points[rng.Intn(len(points))]
		}
	}

	return centroids
}

func clampChannel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}
