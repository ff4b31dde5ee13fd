package models

// QueryResult is a single retrieval hit, ordered by ascending cosine distance.
type QueryResult struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

// QueryResponse is the full answer to a retrieval query, including the
// formatted context string handed to the downstream prompt.
type QueryResponse struct {
	Query      string         `json:"query"`
	Results    []*QueryResult `json:"results"`
	Context    string         `json:"context"`
	NumResults int            `json:"num_results"`
}

// IndexStats describes the persistent vector index.
type IndexStats struct {
	TotalRecords       int    `json:"total_records"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	CollectionName     string `json:"collection_name"`
}
