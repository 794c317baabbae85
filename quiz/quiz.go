// Package quiz is the document model of the xmlq tool. It registers its
// types with an xmlcodec engine and owns the version check that the codec
// leaves to applications.
package quiz

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hengadev/xmlcodec/ndarray"
)

// CurrentVersion is the document version written by Save.
const CurrentVersion = 4

// Kind tells how a question is answered.
type Kind int

const (
	Single Kind = iota
	Multiple
	FreeText
)

var kindNames = []string{"single", "multiple", "free"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown question kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, n := range kindNames {
		if n == name {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown question kind %q", text)
}

// Attachment is media shown with a question.
type Attachment interface {
	Source() string
}

type Image struct {
	Path   string `xmlc:"path,required"`
	Width  int    `xmlc:"width"`
	Height int    `xmlc:"height"`
	Alt    string `xmlc:"alt,elem"`
}

func (i *Image) Source() string { return i.Path }

type Audio struct {
	Path    string  `xmlc:"path,required"`
	Seconds float64 `xmlc:"seconds"`
}

func (a Audio) Source() string { return a.Path }

type Answer struct {
	Text    string `xmlc:"text"`
	Correct bool   `xmlc:"correct"`
}

type Question struct {
	Prompt  string     `xmlc:"prompt,required"`
	Kind    Kind       `xmlc:"kind,default=single"`
	Points  int        `xmlc:"points,default=1"`
	Hint    *string    `xmlc:"hint"`
	Answers []Answer   `xmlc:"answers"`
	Media   Attachment `xmlc:"media"`
}

// Correct returns the indices of the correct answers.
func (q *Question) Correct() []int {
	var out []int
	for i, a := range q.Answers {
		if a.Correct {
			out = append(out, i)
		}
	}
	return out
}

// Quiz is the root document. Grid optionally lays questions out on a
// board; a true cell marks a slot that holds a question.
type Quiz struct {
	Version   int                 `xmlc:"version,required"`
	ID        uuid.UUID           `xmlc:"id"`
	Title     string              `xmlc:"title,elem"`
	Shuffle   bool                `xmlc:"shuffle"`
	Questions []Question          `xmlc:"questions"`
	Grid      ndarray.Array[bool] `xmlc:"grid"`
}

// New returns an empty quiz at the current version with a fresh ID.
func New(title string) *Quiz {
	return &Quiz{
		Version: CurrentVersion,
		ID:      uuid.New(),
		Title:   title,
	}
}

// MaxPoints sums the points of every question.
func (q *Quiz) MaxPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}
