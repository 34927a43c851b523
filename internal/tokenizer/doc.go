// Package tokenizer provides BPE text encoding for dataset preparation.
//
// The Encoder wraps OpenAI's tiktoken vocabularies. Dataset preparation
// remaps the raw BPE ids into a compact per-dataset vocabulary, so the
// encoding only has to stay stable between preparation runs, not across
// datasets.
//
// Example:
//
//	enc, err := tokenizer.NewDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	ids := enc.Encode("a quiet little film")
//	text := enc.Decode(ids)
package tokenizer
