package vocab

import (
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
)

// InitStrategy selects how embedding rows for newly added tokens are filled
// before fine-tuning.
type InitStrategy string

const (
	// InitMeanOfVocab initializes each new row to the mean of all existing rows.
	InitMeanOfVocab InitStrategy = "mean_of_vocab"
	// InitSameVarRandom draws each new row uniformly, matching the per-dimension
	// variance of the existing table.
	InitSameVarRandom InitStrategy = "same_variance_random"
)

// ExtendEmbeddings appends numNew rows to the embedding table and returns the
// result. The input table is not modified. The seed makes the random strategy
// reproducible.
func ExtendEmbeddings(embd [][]float32, numNew int, strategy InitStrategy, seed int64) ([][]float32, error) {
	if len(embd) == 0 {
		return nil, fmt.Errorf("Embedding table is empty")
	}
	dim := len(embd[0])
	for i, row := range embd {
		if len(row) != dim {
			return nil, fmt.Errorf("Embedding row %v has dimension %v, expected %v", i, len(row), dim)
		}
	}

	out := make([][]float32, 0, len(embd)+numNew)
	out = append(out, embd...)

	switch strategy {
	case InitMeanOfVocab:
		mean := tableMean(embd)
		for i := 0; i < numNew; i++ {
			row := make([]float32, dim)
			copy(row, mean)
			out = append(out, row)
		}
	case InitSameVarRandom:
		variance := featureVariance(embd)
		rng := rand.New(rand.NewSource(seed))
		for i := 0; i < numNew; i++ {
			row := make([]float32, dim)
			for d := 0; d < dim; d++ {
				row[d] = sampleUniformWithVar(rng, variance[d])
			}
			out = append(out, row)
		}
	default:
		return nil, fmt.Errorf("Unknown embedding init strategy '%v'", strategy)
	}

	return out, nil
}

func tableMean(embd [][]float32) []float32 {
	mean := make([]float32, len(embd[0]))
	for _, row := range embd {
		for d, v := range row {
			mean[d] += v
		}
	}
	inv := 1 / float32(len(embd))
	for d := range mean {
		mean[d] *= inv
	}
	return mean
}

// featureVariance computes the variance of each embedding dimension across
// the whole table.
func featureVariance(embd [][]float32) []float32 {
	dim := len(embd[0])
	means := make([]float32, dim)
	sqs := make([]float32, dim)
	for _, row := range embd {
		for d, v := range row {
			means[d] += v
			sqs[d] += v * v
		}
	}
	inv := 1 / float32(len(embd))
	variance := make([]float32, dim)
	for d := 0; d < dim; d++ {
		mean := means[d] * inv
		variance[d] = sqs[d]*inv - mean*mean
	}
	return variance
}

func sampleUniformWithVar(rng *rand.Rand, variance float32) float32 {
	// A uniform distribution on [-a, a] has variance a^2/3
	a := math32.Sqrt(3 * variance)
	return 2*a*rng.Float32() - a
}
