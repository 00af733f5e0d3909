package api

// Confidence levels reported by hazard assessments.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Assessment modes for the single-shot analyzer.
const (
	ModeAutoFill         = "auto_fill"
	ModeFollowUpQuestion = "follow_up_question"
)

// BoundingBox locates a hazard within an image. Coordinates and sizes
// are percentages of the image dimensions (0-100).
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Label  string  `json:"label"`
}

// HazardAssessment is the structured result of a vision-model safety
// analysis of a single factory photo.
type HazardAssessment struct {
	Issue            string        `json:"issue"`
	Location         string        `json:"location"`
	Note             string        `json:"note"`
	ConfidenceLevel  string        `json:"confidence_level"`
	Mode             string        `json:"mode,omitempty"`
	BoundingBoxes    []BoundingBox `json:"bounding_boxes,omitempty"`
	CAPA             string        `json:"capa,omitempty"`
	FollowUpQuestion string        `json:"follow_up_question,omitempty"`
}

// OperatorInput holds the manual assessment an operator typed in
// before the model was consulted.
type OperatorInput struct {
	Issue    string `json:"issue"`
	Location string `json:"location"`
	Note     string `json:"note"`
}

// GroundTruth is the operator-confirmed correct assessment used to
// score both benchmark methods.
type GroundTruth struct {
	Issue    string `json:"actual_issue"`
	Location string `json:"actual_location"`
	Note     string `json:"actual_note"`
}

// MethodResult is the outcome of running one benchmark method on one image.
type MethodResult struct {
	Method string `json:"method"`

	// Method 1 only
	UserInput *OperatorInput `json:"user_input,omitempty"`

	// Method 2 only
	FollowUpQuestion string `json:"follow_up_question,omitempty"`
	UserAnswer       string `json:"user_answer,omitempty"`

	Assessment HazardAssessment `json:"assessment"`
	Error      string           `json:"error,omitempty"`
}

// HazardEvaluation scores both method results against the ground truth.
type HazardEvaluation struct {
	Method1Accuracy   float64 `json:"method1_accuracy"`
	Method2Accuracy   float64 `json:"method2_accuracy"`
	Winner            string  `json:"winner"`
	Method1Analysis   string  `json:"method1_analysis,omitempty"`
	Method2Analysis   string  `json:"method2_analysis,omitempty"`
	OverallAssessment string  `json:"overall_assessment,omitempty"`
}
