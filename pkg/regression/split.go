package regression

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit shuffles the indexes 0..n-1 with a seeded generator and
// returns ceil(testSize*n) of them as the test set and the rest as the
// training set. The same n, testSize and seed always give the same split.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %v must be between 0 and 1", testSize)
	}
	if n <= 0 {
		return nil, nil, ErrEmptyDataset
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTrain <= 0 || nTest <= 0 {
		return nil, nil, fmt.Errorf("%w: %d rows with test size %v", ErrInsufficientRows, n, testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
