package enums

import "fmt"

// ReviewStage groups project documents by the review milestone they belong to.
type ReviewStage string

const (
	ReviewStage1 ReviewStage = "review_1"
	ReviewStage2 ReviewStage = "review_2"
	ReviewStage3 ReviewStage = "review_3"
)

// ReviewStages lists stages in delivery order.
var ReviewStages = []ReviewStage{ReviewStage1, ReviewStage2, ReviewStage3}

var reviewStageLabels = map[ReviewStage]string{
	ReviewStage1: "Review 1 - Initial Project Review",
	ReviewStage2: "Review 2 - Mid-Project Assessment",
	ReviewStage3: "Review 3 - Final Review & Completion",
}

func (s ReviewStage) String() string {
	return string(s)
}

// Label returns the human readable heading used in delivery emails.
func (s ReviewStage) Label() string {
	if label, ok := reviewStageLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s ReviewStage) IsValid() bool {
	_, ok := reviewStageLabels[s]
	return ok
}

func ParseReviewStage(value string) (ReviewStage, error) {
	stage := ReviewStage(value)
	if !stage.IsValid() {
		return "", fmt.Errorf("invalid review stage %q", value)
	}
	return stage, nil
}

// DocumentCategory classifies a project document.
type DocumentCategory string

const (
	DocumentCategoryPresentation DocumentCategory = "presentation"
	DocumentCategoryDocument     DocumentCategory = "document"
	DocumentCategoryReport       DocumentCategory = "report"
	DocumentCategoryOther        DocumentCategory = "other"
)

var validDocumentCategories = []DocumentCategory{
	DocumentCategoryPresentation,
	DocumentCategoryDocument,
	DocumentCategoryReport,
	DocumentCategoryOther,
}

func (c DocumentCategory) String() string {
	return string(c)
}

func (c DocumentCategory) IsValid() bool {
	for _, candidate := range validDocumentCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseDocumentCategory(value string) (DocumentCategory, error) {
	for _, candidate := range validDocumentCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document category %q", value)
}
