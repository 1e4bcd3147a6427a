package titles

import "strings"

const substringFloor = 0.9

// Similarity scores two titles in [0, 1] on their normalized forms. Exact
// normalized equality scores 1.0 and a substring relationship scores at least
// 0.9; both overrides exist because short or abbreviated titles score poorly
// under a pure matching-blocks ratio. Empty normalized input scores 0.
// Argument order never affects the score.
func Similarity(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	// The greedy block recursion tie-breaks on its first operand, so the
	// operands are put in a canonical order to keep the score symmetric.
	if nb < na {
		na, nb = nb, na
	}

	score := matchRatio([]rune(na), []rune(nb))
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		if score < substringFloor {
			score = substringFloor
		}
	}
	return score
}

// matchRatio computes the Ratcliff/Obershelp similarity 2*M/T, where M is the
// total length of recursively matched blocks and T the combined input length.
func matchRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	matched := matchedLength(a, b)
	return 2 * float64(matched) / float64(total)
}

func matchedLength(a, b []rune) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	matched := size
	matched += matchedLength(a[:ai], b[:bi])
	matched += matchedLength(a[ai+size:], b[bi+size:])
	return matched
}

// longestCommonBlock finds the longest common contiguous run between a and b.
// On equal lengths the earliest block in a wins, matching difflib semantics.
func longestCommonBlock(a, b []rune) (int, int, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	bestA, bestB, bestSize := 0, 0, 0
	// lengths[j] holds the run length ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			current := lengths[j]
			if a[i-1] == b[j-1] {
				run := prev + 1
				lengths[j] = run
				if run > bestSize {
					bestSize = run
					bestA = i - run
					bestB = j - run
				}
			} else {
				lengths[j] = 0
			}
			prev = current
		}
	}
	return bestA, bestB, bestSize
}
