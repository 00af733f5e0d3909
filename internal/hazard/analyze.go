package hazard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"finqa/internal/api"
	"finqa/internal/llm"
	"finqa/internal/provider"
)

const analyzeSystemPrompt = `You are an expert factory safety inspector analyzing hazard photos.

Your task:
1. Identify visible safety issues/hazards
2. Propose bounding boxes for hazards (x, y, width, height as percentages 0-100)
3. Fill three fields: issue, location, note

CONFIDENCE RULES:
- If you can clearly identify specific hazards with high confidence (>80%), provide direct answers
- If confidence is low (<80%) or critical information is missing, generate a clarifying question instead

OUTPUT FORMAT - Always respond with valid JSON only:
{
    "confidence_level": "high|medium|low",
    "mode": "auto_fill|follow_up_question",
    "issue": "specific safety issue or null if asking question",
    "location": "specific location in facility or null if asking question",
    "note": "additional safety details or null if asking question",
    "bounding_boxes": [{"x": 0, "y": 0, "width": 0, "height": 0, "label": "hazard description"}],
    "capa": "corrective and preventive action recommendation",
    "follow_up_question": "clarifying question if mode is follow_up_question, otherwise null"
}

Be precise and safety-focused. Only auto-fill if you're highly confident.`

const analyzeUserPrompt = "Analyze this factory image for safety hazards and follow the confidence-based output format."

// Analyzer runs single-shot hazard analysis on factory photos. The
// model either fills the assessment directly or, when unsure, asks a
// clarifying question instead.
type Analyzer struct {
	vision provider.Vision
}

func NewAnalyzer(vision provider.Vision) *Analyzer {
	return &Analyzer{
		vision: vision,
	}
}

func NewDefaultAnalyzer() (*Analyzer, error) {
	v, err := provider.NewVision(provider.VisionTypeOpenAI)
	if err != nil {
		return nil, err
	}
	return NewAnalyzer(v), nil
}

func (a *Analyzer) AnalyzeImage(ctx context.Context, imagePath string) (*api.HazardAssessment, error) {
	image, err := LoadImage(imagePath)
	if err != nil {
		return nil, err
	}

	resp, err := a.vision.AnalyzeImage(ctx, api.VisionRequest{
		Prompt:       analyzeUserPrompt,
		Image:        image,
		SystemPrompt: analyzeSystemPrompt,
		Temperature:  0.1,
		MaxTokens:    1000,
	})
	if err != nil {
		return nil, fmt.Errorf("vision analysis failed: %w", err)
	}

	var assessment api.HazardAssessment
	if err := json.Unmarshal([]byte(ExtractJSON(resp)), &assessment); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}

	return &assessment, nil
}

// Run analyzes a single image, optionally persisting the result as
// JSON, and prints a summary.
func (a *Analyzer) Run(ctx context.Context, imagePath, outputFile string) (*api.HazardAssessment, error) {
	fmt.Printf("Analyzing image: %s\n", imagePath)

	assessment, err := a.AnalyzeImage(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	if outputFile != "" {
		result := map[string]any{
			"benchmark_info": map[string]any{
				"image_path":    imagePath,
				"analysis_type": "factory_hazard_detection",
			},
			"analysis_result": assessment,
		}
		if err := WriteJSONFile(outputFile, result); err != nil {
			return nil, err
		}
		fmt.Printf("Results saved to: %s\n", outputFile)
	}

	a.printSummary(assessment)
	return assessment, nil
}

func (a *Analyzer) printSummary(result *api.HazardAssessment) {
	bold := color.New(color.Bold)

	fmt.Println()
	bold.Println("HAZARD DETECTION ANALYSIS SUMMARY")

	fmt.Printf("Mode: %s\n", strings.ToUpper(result.Mode))
	fmt.Printf("Confidence: %s\n", strings.ToUpper(result.ConfidenceLevel))

	switch result.Mode {
	case api.ModeAutoFill:
		fmt.Printf("\nIssue: %s\n", result.Issue)
		fmt.Printf("Location: %s\n", result.Location)
		fmt.Printf("Note: %s\n", result.Note)
		fmt.Printf("CAPA: %s\n", result.CAPA)

		if len(result.BoundingBoxes) > 0 {
			fmt.Printf("\nBounding boxes (%d detected):\n", len(result.BoundingBoxes))
			for i, box := range result.BoundingBoxes {
				fmt.Printf("  %d. %s - x:%.0f%%, y:%.0f%%, w:%.0f%%, h:%.0f%%\n",
					i+1, box.Label, box.X, box.Y, box.Width, box.Height)
			}
		}

	case api.ModeFollowUpQuestion:
		fmt.Printf("\nFollow-up question:\n  %s\n", result.FollowUpQuestion)
	}
}

// LoadImage reads an image file into a blob. The MIME type is derived
// from the file extension, defaulting to JPEG.
func LoadImage(path string) (*llm.Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %q: %w", path, err)
	}

	mimeType := "image/jpeg"
	if strings.EqualFold(filepath.Ext(path), ".png") {
		mimeType = "image/png"
	}

	return &llm.Blob{
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

func WriteJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize results: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results file %q: %w", path, err)
	}
	return nil
}
