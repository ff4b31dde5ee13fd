package embedding

import "strings"

// BERT-style special token IDs used by sentence-embedding models.
const (
	tokenCLS = 101
	tokenSEP = 102
	vocabSize = 30000
)

// tokenize produces padded model inputs (input_ids, attention_mask,
// token_type_ids) for a BERT-style ONNX model. Words are mapped to IDs by
// hashing, which is sufficient for models exported with a hash vocabulary.
func tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = tokenCLS
	attentionMask[0] = 1

	pos := 1
	for _, word := range strings.Fields(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(hashToken(strings.ToLower(word)) % vocabSize)
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = tokenSEP
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}
