package ingestion

// SampleCorpus is the built-in fifteen document collection used when no
// input corpus is given.
var SampleCorpus = []RawDocument{
	{ID: "d1", Contents: "The cat chased a mouse across the kitchen floor."},
	{ID: "d2", Contents: "Information retrieval systems rank documents by relevance."},
	{ID: "d3", Contents: "A short story about a brave little bird."},
	{ID: "d4", Contents: "My dog and my cat sleep together on the sofa."},
	{ID: "d5", Contents: "Search engines build an inverted index over documents."},
	{ID: "d6", Contents: "The night sky was full of bright stars."},
	{ID: "d7", Contents: "Dogs bark loudly at strangers passing the gate."},
	{ID: "d8", Contents: "Boolean queries combine terms with AND, OR and NOT operators."},
	{ID: "d9", Contents: "Cats love to nap in warm sunny spots."},
	{ID: "d10", Contents: "Stemming reduces words like running to their root form."},
	{ID: "d11", Contents: "The researchers ranked the results late into the night."},
	{ID: "d12", Contents: "A dog and a cat can become the best of friends."},
	{ID: "d13", Contents: "Short queries often retrieve too many documents."},
	{ID: "d14", Contents: "The mouse hid from the hungry cat behind the wall."},
	{ID: "d15", Contents: "Preprocessing removes punctuation, stopwords, and extra whitespace."},
}

// TestQuery pairs a query with the document ids it must return.
type TestQuery struct {
	Query    string   `json:"query" yaml:"query"`
	Expected []string `json:"expected" yaml:"expected"`
}

// SampleBattery holds the expected answers for SampleCorpus.
var SampleBattery = []TestQuery{
	{Query: "dog AND cat", Expected: []string{"d4", "d12"}},
	{Query: "dog OR cat", Expected: []string{"d1", "d4", "d7", "d9", "d12", "d14"}},
	{Query: "dog AND NOT cat", Expected: []string{"d7"}},
	{Query: "dog OR short", Expected: []string{"d3", "d4", "d7", "d12", "d13"}},
	{Query: "rank OR night", Expected: []string{"d2", "d6", "d11"}},
	{Query: "cat AND mouse", Expected: []string{"d1", "d14"}},
	{Query: "(dog OR cat) AND NOT mouse", Expected: []string{"d4", "d7", "d9", "d12"}},
}
