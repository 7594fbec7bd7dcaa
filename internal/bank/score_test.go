package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestGradeMCQ(t *testing.T) {
	it := &Item{
		Type: TypeMCQ,
		Payload: Payload{
			Question:    "Normale Atemfrequenz?",
			Options:     []string{"12-20/min", "30-40/min"},
			Answer:      "12-20/min",
			Explanation: "Erwachsene atmen in Ruhe 12-20 mal pro Minute.",
		},
	}

	res, err := Grade(it, Response{Choice: "12-20/min"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Score)
	assert.True(t, res.Correct)
	assert.Equal(t, "Erwachsene atmen in Ruhe 12-20 mal pro Minute.", res.Explanation)

	res, err = Grade(it, Response{Choice: "30-40/min"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Score)
	assert.False(t, res.Correct)
}

func TestGradeTF(t *testing.T) {
	it := &Item{
		Type:    TypeTF,
		Payload: Payload{Question: "Fieber beginnt ab 38,0 °C.", AnswerTrue: boolPtr(true)},
	}

	res, err := Grade(it, Response{Bool: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, res.Correct)

	res, err = Grade(it, Response{Bool: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, res.Correct)

	_, err = Grade(it, Response{})
	assert.Error(t, err)
}

func TestGradeMultiPartialCredit(t *testing.T) {
	it := &Item{
		Type: TypeMulti,
		Payload: Payload{
			Question: "Sturzrisiken?",
			Options:  []string{"A", "B", "C", "D"},
			Answers:  []string{"A", "B", "C"},
		},
	}

	tests := []struct {
		name     string
		selected []string
		want     float64
	}{
		{"all correct", []string{"A", "B", "C"}, 1},
		{"two of three", []string{"A", "B"}, 2.0 / 3.0},
		{"hit canceled by wrong pick", []string{"A", "D"}, 0},
		{"two hits one wrong", []string{"A", "B", "D"}, 1.0 / 3.0},
		{"nothing selected", nil, 0},
		{"duplicates count once", []string{"A", "A", "B"}, 2.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Grade(it, Response{Selected: tt.selected})
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Score, 1e-9)
		})
	}
}

func TestGradeCloze(t *testing.T) {
	it := &Item{
		Type:    TypeCloze,
		Payload: Payload{Question: "RR steht für ___.", Answer: "Blutdruck"},
	}

	res, err := Grade(it, Response{Text: "  blutdruck "})
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Empty(t, res.Solution)

	// Containment works both ways for longer answers
	res, err = Grade(it, Response{Text: "der Blutdruckwert"})
	require.NoError(t, err)
	assert.True(t, res.Correct)

	res, err = Grade(it, Response{Text: "Puls"})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, "Blutdruck", res.Solution)
}

func TestGradeClozeEmptyAnswerIsWrong(t *testing.T) {
	it := &Item{
		Type:    TypeCloze,
		Payload: Payload{Question: "q", Answer: "Dokumentation"},
	}
	res, err := Grade(it, Response{Text: "   "})
	require.NoError(t, err)
	assert.False(t, res.Correct)
}

func TestGradeOrder(t *testing.T) {
	it := &Item{
		Type: TypeOrder,
		Payload: Payload{
			Question: "Händedesinfektion: Reihenfolge?",
			Steps:    []string{"c", "a", "b"},
			Solution: []string{"a", "b", "c"},
		},
	}

	res, err := Grade(it, Response{Order: []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.True(t, res.Correct)

	res, err = Grade(it, Response{Order: []string{"a", "c", "b"}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, res.Score, 1e-9)
	assert.False(t, res.Correct)

	res, err = Grade(it, Response{Order: nil})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Score)
}

func TestGradeMatch(t *testing.T) {
	it := &Item{
		Type: TypeMatch,
		Payload: Payload{
			Question: "Zuordnen",
			Left:     []string{"Puls", "RR"},
			Right:    []string{"Schläge/min", "mmHg"},
			Pairs:    map[string]string{"Puls": "Schläge/min", "RR": "mmHg"},
		},
	}

	res, err := Grade(it, Response{Pairs: map[string]string{"Puls": "Schläge/min", "RR": "mmHg"}})
	require.NoError(t, err)
	assert.True(t, res.Correct)

	res, err = Grade(it, Response{Pairs: map[string]string{"Puls": "mmHg", "RR": "mmHg"}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Score, 1e-9)

	// Unassigned pairs never match
	res, err = Grade(it, Response{Pairs: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Score)
}

func TestGradeShort(t *testing.T) {
	it := &Item{
		Type: TypeShort,
		Payload: Payload{
			Question: "Maßnahmen bei Fieber?",
			Rubric:   "Nennt Flüssigkeit, Beobachtung und Information der Pflegefachkraft.",
			Keywords: []string{"trinken", "beobachten", "melden", "dokumentieren"},
		},
	}

	res, err := Grade(it, Response{Text: "Viel trinken lassen, regelmäßig beobachten, Auffälligkeiten melden und dokumentieren."})
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.NotEmpty(t, res.Rubric)

	res, err = Grade(it, Response{Text: "Viel trinken lassen."})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, res.Score, 1e-9)
	assert.False(t, res.Correct)

	res, err = Grade(it, Response{Text: ""})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, it.Payload.Rubric, res.Rubric)
}

func TestGradeShortDenominatorBand(t *testing.T) {
	// Two keywords still divide by 3, so both hits give 2/3
	it := &Item{
		Type:    TypeShort,
		Payload: Payload{Question: "q", Rubric: "r", Keywords: []string{"alpha", "beta"}},
	}
	res, err := Grade(it, Response{Text: "alpha beta"})
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, res.Score, 1e-9)

	// Eight keywords divide by 6 and cap at 1
	it.Payload.Keywords = []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8"}
	res, err = Grade(it, Response{Text: "k1 k2 k3 k4 k5 k6 k7 k8"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Score)
}

func TestGradeUnknownType(t *testing.T) {
	it := &Item{Type: ItemType("essay"), Payload: Payload{Question: "q"}}
	_, err := Grade(it, Response{})
	assert.Error(t, err)
}
