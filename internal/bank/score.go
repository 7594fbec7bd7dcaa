package bank

import (
	"fmt"
	"strings"
)

// Response is a student's answer to a single item. Only the field matching
// the item type is read.
type Response struct {
	Choice   string            `json:"choice,omitempty"`   // mcq, case_mcq
	Selected []string          `json:"selected,omitempty"` // multi
	Bool     *bool             `json:"bool,omitempty"`     // tf
	Text     string            `json:"text,omitempty"`     // cloze, short
	Order    []string          `json:"order,omitempty"`    // order
	Pairs    map[string]string `json:"pairs,omitempty"`    // match
}

// Result is the graded outcome of one item. Score is in [0,1], Max is
// always 1 so attempt totals can be summed directly.
type Result struct {
	Score       float64 `json:"score"`
	Max         float64 `json:"max"`
	Correct     bool    `json:"correct"`
	Explanation string  `json:"explanation,omitempty"`
	Solution    string  `json:"solution,omitempty"` // shown for missed cloze items
	Rubric      string  `json:"rubric,omitempty"`   // shown for short items
}

// correctThreshold marks partially scored items as fully correct. Floating
// point sums of partial credit land just below 1.0.
const correctThreshold = 0.999

// Grade scores a response against an item.
func Grade(it *Item, resp Response) (Result, error) {
	var score float64
	p := &it.Payload

	switch it.Type {
	case TypeMCQ, TypeCaseMCQ:
		if resp.Choice == p.Answer {
			score = 1
		}

	case TypeTF:
		if resp.Bool == nil {
			return Result{}, fmt.Errorf("tf item requires a true/false response")
		}
		if *resp.Bool == *p.AnswerTrue {
			score = 1
		}

	case TypeMulti:
		score = gradeMulti(p.Answers, resp.Selected)

	case TypeCloze:
		if clozeMatches(p.Answer, resp.Text) {
			score = 1
		}

	case TypeOrder:
		score = gradeOrder(p.Solution, resp.Order)

	case TypeMatch:
		score = gradeMatch(p.Left, p.Pairs, resp.Pairs)

	case TypeShort:
		score = gradeShort(p.Keywords, resp.Text)

	default:
		return Result{}, fmt.Errorf("unknown item type %q", it.Type)
	}

	res := Result{
		Score:       clamp01(score),
		Max:         1,
		Explanation: p.Explanation,
	}
	res.Correct = res.Score >= correctThreshold

	if it.Type == TypeCloze && !res.Correct {
		res.Solution = p.Answer
	}
	if it.Type == TypeShort {
		res.Rubric = p.Rubric
	}
	return res, nil
}

// gradeMulti gives partial credit: hits minus wrong picks, floored at zero,
// normalized by the number of correct answers.
func gradeMulti(gold, got []string) float64 {
	goldSet := make(map[string]bool, len(gold))
	for _, g := range gold {
		goldSet[g] = true
	}
	gotSet := make(map[string]bool, len(got))
	for _, g := range got {
		gotSet[g] = true
	}

	hits, extra := 0, 0
	for g := range gotSet {
		if goldSet[g] {
			hits++
		} else {
			extra++
		}
	}

	score := float64(hits - extra)
	if score < 0 {
		score = 0
	}
	return score / float64(max(1, len(goldSet)))
}

// clozeMatches compares trimmed, case-folded answers. Longer gold answers
// also accept containment in either direction, so "Doku" style shorthand
// does not fail "Dokumentationssystem".
func clozeMatches(gold, got string) bool {
	g := strings.ToLower(strings.TrimSpace(gold))
	a := strings.ToLower(strings.TrimSpace(got))
	if g == a {
		return true
	}
	if len(g) >= 6 && (strings.Contains(a, g) || strings.Contains(g, a)) {
		return a != ""
	}
	return false
}

// gradeOrder scores by position: each step in the right slot earns an equal
// share.
func gradeOrder(solution, got []string) float64 {
	if len(solution) == 0 {
		return 0
	}
	matches := 0
	for i, step := range got {
		if i >= len(solution) {
			break
		}
		if step == solution[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(solution))
}

// gradeMatch scores each correctly assigned pair as an equal share.
func gradeMatch(left []string, solution, got map[string]string) float64 {
	if len(left) == 0 {
		return 0
	}
	matches := 0
	for _, l := range left {
		if got[l] != "" && got[l] == solution[l] {
			matches++
		}
	}
	return float64(matches) / float64(len(left))
}

// gradeShort is a rough keyword heuristic: count keyword substrings in the
// answer and normalize against a band of 3..6 expected hits. The rubric is
// always returned alongside as the real feedback.
func gradeShort(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	got := strings.ToLower(text)
	hits := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(got, strings.ToLower(kw)) {
			hits++
		}
	}
	denom := max(3, min(6, len(keywords)))
	score := float64(hits) / float64(denom)
	if score > 1 {
		score = 1
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
