// Package bank holds the task item bank: item model, grading and selection.
package bank

import (
	"encoding/json"
	"fmt"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/curriculum"
)

// ItemType identifies the task format of an item.
type ItemType string

const (
	TypeMCQ     ItemType = "mcq"
	TypeMulti   ItemType = "multi"
	TypeTF      ItemType = "tf"
	TypeCloze   ItemType = "cloze"
	TypeOrder   ItemType = "order"
	TypeMatch   ItemType = "match"
	TypeCaseMCQ ItemType = "case_mcq"
	TypeShort   ItemType = "short"
)

// ItemTypes lists all supported task formats.
var ItemTypes = []ItemType{
	TypeMCQ, TypeMulti, TypeTF, TypeCloze,
	TypeOrder, TypeMatch, TypeCaseMCQ, TypeShort,
}

// ValidType reports whether t is a known task format.
func ValidType(t ItemType) bool {
	for _, known := range ItemTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Payload carries the type-specific content of an item. Which fields are
// required depends on the item type; Validate enforces that.
type Payload struct {
	Stem        string            `json:"stem,omitempty"`        // case_mcq: case description
	Question    string            `json:"q"`                     // all types
	Options     []string          `json:"options,omitempty"`     // mcq, multi, case_mcq
	Answer      string            `json:"answer,omitempty"`      // mcq, case_mcq, cloze
	Answers     []string          `json:"answers,omitempty"`     // multi
	AnswerTrue  *bool             `json:"answer_true,omitempty"` // tf
	Hints       []string          `json:"hints,omitempty"`       // cloze
	Steps       []string          `json:"steps,omitempty"`       // order: steps as presented
	Solution    []string          `json:"solution,omitempty"`    // order: correct sequence
	Left        []string          `json:"left,omitempty"`        // match
	Right       []string          `json:"right,omitempty"`       // match
	Pairs       map[string]string `json:"pairs,omitempty"`       // match: left -> right solution
	Rubric      string            `json:"rubric,omitempty"`      // short
	Keywords    []string          `json:"keywords,omitempty"`    // short
	Explanation string            `json:"explanation,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
}

// Item is one authored task, assigned to a Lernfeld area and difficulty level.
type Item struct {
	ID      int64    `json:"id"`
	LF      string   `json:"lf"`
	Area    string   `json:"area"`
	Level   int      `json:"level"`
	Type    ItemType `json:"type"`
	Payload Payload  `json:"payload"`
}

// Validate checks catalog references and type-specific payload requirements.
func (it *Item) Validate() error {
	if !curriculum.ValidArea(it.LF, it.Area) {
		return fmt.Errorf("unknown lernfeld/area %q/%q", it.LF, it.Area)
	}
	if !curriculum.ValidLevel(it.Level) {
		return fmt.Errorf("level %d out of range", it.Level)
	}
	if !ValidType(it.Type) {
		return fmt.Errorf("unknown item type %q", it.Type)
	}
	p := &it.Payload
	if p.Question == "" {
		return fmt.Errorf("item question is empty")
	}

	switch it.Type {
	case TypeMCQ, TypeCaseMCQ:
		if len(p.Options) < 2 {
			return fmt.Errorf("%s item needs at least 2 options", it.Type)
		}
		if !contains(p.Options, p.Answer) {
			return fmt.Errorf("%s answer %q not among options", it.Type, p.Answer)
		}
		if it.Type == TypeCaseMCQ && p.Stem == "" {
			return fmt.Errorf("case_mcq item needs a case stem")
		}
	case TypeMulti:
		if len(p.Options) < 2 {
			return fmt.Errorf("multi item needs at least 2 options")
		}
		if len(p.Answers) == 0 {
			return fmt.Errorf("multi item needs at least 1 answer")
		}
		for _, a := range p.Answers {
			if !contains(p.Options, a) {
				return fmt.Errorf("multi answer %q not among options", a)
			}
		}
	case TypeTF:
		if p.AnswerTrue == nil {
			return fmt.Errorf("tf item needs answer_true")
		}
	case TypeCloze:
		if p.Answer == "" {
			return fmt.Errorf("cloze item needs an answer")
		}
	case TypeOrder:
		if len(p.Solution) < 2 {
			return fmt.Errorf("order item needs at least 2 solution steps")
		}
		if len(p.Steps) == 0 {
			p.Steps = append([]string(nil), p.Solution...)
		}
		if len(p.Steps) != len(p.Solution) {
			return fmt.Errorf("order item steps/solution length mismatch")
		}
	case TypeMatch:
		if len(p.Left) == 0 || len(p.Right) == 0 {
			return fmt.Errorf("match item needs left and right entries")
		}
		if len(p.Pairs) != len(p.Left) {
			return fmt.Errorf("match item needs one pair per left entry")
		}
		for _, l := range p.Left {
			if _, ok := p.Pairs[l]; !ok {
				return fmt.Errorf("match item missing pair for %q", l)
			}
		}
	case TypeShort:
		if p.Rubric == "" {
			return fmt.Errorf("short item needs a rubric")
		}
	}
	return nil
}

// PublicItem is the answer-free view of an item handed to students.
type PublicItem struct {
	ID       int64    `json:"id"`
	LF       string   `json:"lf"`
	Area     string   `json:"area"`
	Level    int      `json:"level"`
	Type     ItemType `json:"type"`
	Stem     string   `json:"stem,omitempty"`
	Question string   `json:"q"`
	Options  []string `json:"options,omitempty"`
	Hints    []string `json:"hints,omitempty"`
	Steps    []string `json:"steps,omitempty"`
	Left     []string `json:"left,omitempty"`
	Right    []string `json:"right,omitempty"`
}

// Public strips everything a student must not see (answers, rubric, keywords).
func (it *Item) Public() PublicItem {
	return PublicItem{
		ID:       it.ID,
		LF:       it.LF,
		Area:     it.Area,
		Level:    it.Level,
		Type:     it.Type,
		Stem:     it.Payload.Stem,
		Question: it.Payload.Question,
		Options:  it.Payload.Options,
		Hints:    it.Payload.Hints,
		Steps:    it.Payload.Steps,
		Left:     it.Payload.Left,
		Right:    it.Payload.Right,
	}
}

// MarshalPayload serializes the payload for storage.
func (it *Item) MarshalPayload() (string, error) {
	data, err := json.Marshal(it.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal item payload: %w", err)
	}
	return string(data), nil
}

// UnmarshalPayload restores the payload from its stored form.
func (it *Item) UnmarshalPayload(data string) error {
	if err := json.Unmarshal([]byte(data), &it.Payload); err != nil {
		return fmt.Errorf("failed to unmarshal item payload: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
