// Package data provides dataset loading, padding and batching for the
// training harness: split files, the shared embeddings table, the
// vocabulary, and the shuffled batch iterator.
package data

// Pad brings every sequence to exactly maxLen tokens. Shorter
// sequences are right-padded with the 0 sentinel, longer ones are
// truncated. The returned lengths hold the pre-padding length, capped
// at maxLen:
//
//	Pad([[2,3,4]], 5)       -> [[2,3,4,0,0]], [3]
//	Pad([[1,2,3,4,5,6]], 4) -> [[1,2,3,4]],   [4]
//
// The input sequences are not modified; callers that want the padded
// form in place assign the result back.
func Pad(sequences [][]int, maxLen int) ([][]int, []int) {
	padded := make([][]int, len(sequences))
	lengths := make([]int, len(sequences))

	for i, seq := range sequences {
		row := make([]int, maxLen)
		n := copy(row, seq)
		padded[i] = row
		lengths[i] = n
	}
	return padded, lengths
}
