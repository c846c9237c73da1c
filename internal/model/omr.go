package model

import "fmt"

// Segment is a contiguous 1-based range of question numbers as printed on an
// OMR answer sheet.
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SheetSegments returns the ordered OMR sheet layout for the category. Each
// surface that renders or scans a sheet walks these segments instead of
// duplicating range arithmetic.
func (c Category) SheetSegments() []Segment {
	switch c {
	case CategoryListening:
		return []Segment{{1, 17}}
	case CategoryVocabQuest:
		return []Segment{{1, 27}}
	case CategoryEasyProblems:
		return []Segment{{1, 10}}
	case CategoryMockExam:
		// Listening block, then the reading block.
		return []Segment{{1, 17}, {18, 45}}
	}
	return nil
}

// QuestionAt maps a flat 1-based sheet position to the question number it
// represents, walking the category's segments in order.
func (c Category) QuestionAt(position int) (int, error) {
	if position < 1 {
		return 0, fmt.Errorf("sheet position %d out of range", position)
	}
	remaining := position
	for _, seg := range c.SheetSegments() {
		size := seg.End - seg.Start + 1
		if remaining <= size {
			return seg.Start + remaining - 1, nil
		}
		remaining -= size
	}
	return 0, fmt.Errorf("sheet position %d out of range for category %s", position, c)
}
