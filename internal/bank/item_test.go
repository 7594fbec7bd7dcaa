package bank

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalForTest(v any) (string, error) {
	data, err := json.Marshal(v)
	return string(data), err
}

func TestValidateMCQ(t *testing.T) {
	it := Item{
		LF: "LF2", Area: "vitalzeichen", Level: 2, Type: TypeMCQ,
		Payload: Payload{
			Question: "q",
			Options:  []string{"a", "b"},
			Answer:   "a",
		},
	}
	assert.NoError(t, it.Validate())

	it.Payload.Answer = "c"
	assert.Error(t, it.Validate(), "answer outside options")

	it.Payload.Answer = "a"
	it.Payload.Options = []string{"a"}
	assert.Error(t, it.Validate(), "single option")
}

func TestValidateCatalogReferences(t *testing.T) {
	it := Item{
		LF: "LF99", Area: "vitalzeichen", Level: 2, Type: TypeTF,
		Payload: Payload{Question: "q", AnswerTrue: boolPtr(true)},
	}
	assert.Error(t, it.Validate())

	it.LF = "LF2"
	it.Area = "nope"
	assert.Error(t, it.Validate())

	it.Area = "vitalzeichen"
	it.Level = 4
	assert.Error(t, it.Validate())

	it.Level = 2
	assert.NoError(t, it.Validate())
}

func TestValidateOrderCopiesSolutionIntoSteps(t *testing.T) {
	it := Item{
		LF: "LF2", Area: "infekt_prophylaxe", Level: 1, Type: TypeOrder,
		Payload: Payload{
			Question: "q",
			Solution: []string{"erst", "dann", "zuletzt"},
		},
	}
	require.NoError(t, it.Validate())
	assert.Equal(t, it.Payload.Solution, it.Payload.Steps)
}

func TestValidateMatchNeedsAllPairs(t *testing.T) {
	it := Item{
		LF: "LF2", Area: "vitalzeichen", Level: 2, Type: TypeMatch,
		Payload: Payload{
			Question: "q",
			Left:     []string{"Puls", "RR"},
			Right:    []string{"x", "y"},
			Pairs:    map[string]string{"Puls": "x"},
		},
	}
	assert.Error(t, it.Validate())

	it.Payload.Pairs["RR"] = "y"
	assert.NoError(t, it.Validate())
}

func TestPublicStripsAnswers(t *testing.T) {
	it := Item{
		ID: 7, LF: "LF2", Area: "vitalzeichen", Level: 2, Type: TypeMCQ,
		Payload: Payload{
			Question:    "q",
			Options:     []string{"a", "b"},
			Answer:      "a",
			Explanation: "because",
		},
	}

	pub := it.Public()
	assert.Equal(t, int64(7), pub.ID)
	assert.Equal(t, []string{"a", "b"}, pub.Options)

	// The public view has no answer fields at all; marshal and make sure
	// nothing leaks through
	data, err := marshalForTest(pub)
	require.NoError(t, err)
	assert.NotContains(t, data, `"answer"`)
	assert.NotContains(t, data, "because")
}

func TestParseItemsRejectsInvalid(t *testing.T) {
	_, err := ParseItems([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseItems([]byte(`[{"lf":"LF2","area":"vitalzeichen","level":2,"type":"mcq","payload":{"q":"q","options":["a"],"answer":"a"}}]`))
	assert.Error(t, err)

	items, err := ParseItems([]byte(`[{"lf":"LF2","area":"vitalzeichen","level":2,"type":"tf","payload":{"q":"q","answer_true":true}}]`))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSeedItemsAreValid(t *testing.T) {
	items, err := SeedItems()
	require.NoError(t, err)
	assert.NotEmpty(t, items)

	// Every Lernfeld of the seed set must carry at least one item per listed area
	seen := make(map[string]bool)
	for _, it := range items {
		seen[it.LF+"/"+it.Area] = true
	}
	assert.True(t, seen["LF2/vitalzeichen"])
}
