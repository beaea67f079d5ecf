// Package tokenizer turns raw product text into an ordered sequence of
// stemmed terms. It is the single tokenization path shared by index build
// and query handling, so that a term indexed from a document and the same
// term typed in a query always collapse to the same stem.
package tokenizer
