package tokenizer

import (
	"strings"
	"testing"
)

var benchTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Boolean retrieval answers a query with the exact set of documents
        that satisfy it. Each document is lowercased, stripped of punctuation,
        filtered for stopwords and stemmed before its terms enter the inverted
        index, and query words go through the same steps.`,
	"long": strings.Repeat(`Information retrieval systems form the backbone of modern search
        infrastructure. These systems combine tokenization, stemming, and stop word
        removal to normalize text into searchable terms. The inverted index maps each
        term to the documents containing it. `, 20),
}

func BenchmarkProcess(b *testing.B) {
	for _, stemmer := range []string{"porter", "snowball", "none"} {
		pre, err := New(stemmer)
		if err != nil {
			b.Fatal(err)
		}
		for name, text := range benchTexts {
			b.Run(stemmer+"_"+name, func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(text)))
				for i := 0; i < b.N; i++ {
					_ = pre.Process(text)
				}
			})
		}
	}
}

func BenchmarkTerm(b *testing.B) {
	pre := Default()
	words := []string{"Running", "cats", "the", "relevance", "documents!"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = pre.Term(words[i%len(words)])
	}
}
