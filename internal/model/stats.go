package model

type CorpusStats struct {
	Documents         int64 `json:"documents"`
	Chunks            int64 `json:"chunks"`
	PendingEmbeddings int64 `json:"pending_embeddings"`
}
