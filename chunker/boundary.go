package chunker

import "github.com/sevigo/ragchunk/embeddings"

// unitRun is a half-open [start, end) range over a unit sequence.
type unitRun struct {
	start int
	end   int
}

// standsAlone reports whether a unit must form a run of its own: units longer
// than targetSize are never split, and fixed-width fallback slices are emitted
// as-is because their embeddings carry no sentence structure to compare.
func standsAlone(u textUnit, targetSize int) bool {
	return u.forced || len(u.text) > targetSize
}

// detectBoundaries partitions units into contiguous, exhaustive runs. The
// accumulation is greedy left-to-right: a run keeps extending while it is
// under targetSize, or while the next unit still reads as similar to the run
// (cosine against the run's mean embedding at or above threshold). Oversized
// and forced units stand alone. The final run absorbs whatever remains.
func detectBoundaries(units []textUnit, vectors [][]float32, targetSize int, threshold float64) []unitRun {
	if len(units) == 0 {
		return nil
	}

	var runs []unitRun
	runStart := 0
	runLen := len(units[0].text)
	runSum := cloneVector(vectors[0])
	forceClose := standsAlone(units[0], targetSize)

	for i := 1; i < len(units); i++ {
		alone := standsAlone(units[i], targetSize)

		cut := forceClose || alone
		if !cut && runLen >= targetSize {
			// Cosine is scale-invariant, so the running sum stands in
			// for the run's mean embedding.
			cut = embeddings.CosineSimilarity(vectors[i], runSum) < threshold
		}

		if cut {
			runs = append(runs, unitRun{start: runStart, end: i})
			runStart = i
			runLen = len(units[i].text)
			runSum = cloneVector(vectors[i])
			forceClose = alone
			continue
		}

		runLen += len(units[i].text)
		for j := range runSum {
			runSum[j] += vectors[i][j]
		}
	}

	return append(runs, unitRun{start: runStart, end: len(units)})
}

// packBySize groups units greedily on accumulated length alone, with the same
// stand-alone and final-run rules as detectBoundaries. Used by pipelines that
// cut purely on size and make no embedding calls.
func packBySize(units []textUnit, targetSize int) []unitRun {
	if len(units) == 0 {
		return nil
	}

	var runs []unitRun
	runStart := 0
	runLen := len(units[0].text)
	forceClose := standsAlone(units[0], targetSize)

	for i := 1; i < len(units); i++ {
		alone := standsAlone(units[i], targetSize)
		if forceClose || alone || runLen >= targetSize {
			runs = append(runs, unitRun{start: runStart, end: i})
			runStart = i
			runLen = len(units[i].text)
			forceClose = alone
			continue
		}
		runLen += len(units[i].text)
	}

	return append(runs, unitRun{start: runStart, end: len(units)})
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
