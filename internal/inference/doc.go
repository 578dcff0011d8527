// Package inference talks to model servers that speak the HuggingFace
// text-embeddings-inference (TEI) HTTP API.
//
// Two routes are used:
//
//	POST {base}/embed    {"inputs": ["a", "b"], "truncate": true}  -> [[...], [...]]
//	POST {base}/predict  {"inputs": "text", "truncate": true}      -> [{"label": "...", "score": 0.9}]
//
// An embedding server runs a sentence-transformers model such as
// all-MiniLM-L6-v2; a classifier server runs a sequence-classification
// model such as cardiffnlp/twitter-roberta-base-sentiment.
package inference
