package showcase

import "math/rand/v2"

// ChooseUniqueIndices picks count indices in [0, poolSize).
//
// With enough entries the result holds distinct values in acceptance order.
// A smaller pool is shuffled and cycled so the result still has count values.
// A nil rng uses the global source.
func ChooseUniqueIndices(rng *rand.Rand, poolSize, count int) []int {
	out := make([]int, 0, max(count, 0))
	if poolSize <= 0 || count <= 0 {
		return out
	}

	if poolSize >= count {
		seen := make(map[int]struct{}, count)
		for len(out) < count {
			idx := intN(rng, poolSize)
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			out = append(out, idx)
		}
		return out
	}

	pool := make([]int, poolSize)
	for i := range pool {
		pool[i] = i
	}
	swap := func(i, j int) { pool[i], pool[j] = pool[j], pool[i] }
	if rng != nil {
		rng.Shuffle(poolSize, swap)
	} else {
		rand.Shuffle(poolSize, swap)
	}
	for len(out) < count {
		out = append(out, pool[len(out)%poolSize])
	}
	return out
}

func intN(rng *rand.Rand, n int) int {
	if rng != nil {
		return rng.IntN(n)
	}
	return rand.IntN(n)
}

func sameIndices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
