package hazard

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"finqa/internal/api"
	"finqa/internal/provider"
)

const benchmarkSystemPrompt = `You are an expert factory safety inspector analyzing hazard photos.

ANALYSIS FOCUS:
- Identify visible safety issues/hazards (electrical, mechanical, chemical, ergonomic, etc.)
- Determine specific location within the facility
- Note severity and immediate risks
- Suggest corrective actions

CONFIDENCE RULES:
- High confidence (>80%): Clear, obvious hazards with sufficient detail
- Medium confidence (50-80%): Some uncertainty about specifics
- Low confidence (<50%): Unclear image, missing context, or ambiguous hazards

OUTPUT REQUIREMENTS:
- Be specific and safety-focused
- Use technical safety terminology when appropriate
- Consider immediate vs long-term risks
- Prioritize worker safety above all else

RESPONSE FORMAT: Always return valid JSON only.`

const (
	MethodManualName   = "manual_input_with_ai"
	MethodFollowUpName = "ai_followup"
)

// suiteSize is the fixed number of images a full benchmark run takes.
const suiteSize = 5

// Prompter collects free-text input from the operator running the
// benchmark.
type Prompter interface {
	Prompt(label string) (string, error)
}

// StdinPrompter reads operator answers from standard input.
type StdinPrompter struct {
	reader *bufio.Reader
}

func NewStdinPrompter() *StdinPrompter {
	return &StdinPrompter{
		reader: bufio.NewReader(os.Stdin),
	}
}

func (p *StdinPrompter) Prompt(label string) (string, error) {
	fmt.Printf("%s ", label)
	line, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Benchmark compares two hazard assessment methods on the same image:
// manual operator input refined by the model versus the model asking a
// single follow-up question. An evaluator model scores both against an
// operator-provided ground truth.
type Benchmark struct {
	vision   provider.Vision
	lm       provider.LM
	prompter Prompter
}

func NewBenchmark(vision provider.Vision, lm provider.LM, prompter Prompter) *Benchmark {
	return &Benchmark{
		vision:   vision,
		lm:       lm,
		prompter: prompter,
	}
}

func NewDefaultBenchmark() (*Benchmark, error) {
	v, err := provider.NewVision(provider.VisionTypeGemini)
	if err != nil {
		return nil, err
	}
	lm, err := provider.NewLM(provider.LMTypeGemini)
	if err != nil {
		return nil, err
	}
	return NewBenchmark(v, lm, NewStdinPrompter()), nil
}

// TestResult bundles everything produced by one benchmark test.
type TestResult struct {
	TestNumber  int                  `json:"test_number"`
	ImagePath   string               `json:"image_path"`
	Method1     api.MethodResult     `json:"method1_result"`
	Method2     api.MethodResult     `json:"method2_result"`
	GroundTruth api.GroundTruth      `json:"ground_truth"`
	Evaluation  api.HazardEvaluation `json:"evaluation"`
}

type SuiteSummary struct {
	TotalTests     int       `json:"total_tests"`
	Method1Average float64   `json:"method1_average"`
	Method2Average float64   `json:"method2_average"`
	Method1Scores  []float64 `json:"method1_scores"`
	Method2Scores  []float64 `json:"method2_scores"`
	Winner         string    `json:"winner"`
}

type SuiteResult struct {
	Summary SuiteSummary `json:"benchmark_summary"`
	Results []TestResult `json:"detailed_results"`
}

// MethodManual asks the operator for their own assessment first, then
// has the model produce a final assessment informed by that input.
func (b *Benchmark) MethodManual(ctx context.Context, imagePath string) (api.MethodResult, error) {
	bold := color.New(color.Bold)
	fmt.Println()
	bold.Println("METHOD 1: MANUAL INPUT + AI ANALYSIS")
	fmt.Println("Please analyze the image and provide the following information:")

	issue, err := b.prompter.Prompt("\nWhat is the safety issue/hazard?")
	if err != nil {
		return api.MethodResult{}, err
	}
	location, err := b.prompter.Prompt("Where is it located in the facility?")
	if err != nil {
		return api.MethodResult{}, err
	}
	note, err := b.prompter.Prompt("Additional notes or details?")
	if err != nil {
		return api.MethodResult{}, err
	}

	userInput := &api.OperatorInput{
		Issue:    issue,
		Location: location,
		Note:     note,
	}

	prompt := fmt.Sprintf(`%s

USER PROVIDED INFORMATION:
- Issue: %s
- Location: %s
- Note: %s

TASK: Based on the user's input and your analysis of this image, provide a comprehensive safety assessment.

OUTPUT FORMAT (JSON only):
{
    "issue": "detailed safety issue based on user input and image analysis",
    "location": "specific location description based on user input and image",
    "note": "comprehensive safety assessment and recommendations",
    "confidence_level": "high|medium|low",
    "capa": "corrective and preventive action recommendation"
}`, benchmarkSystemPrompt, issue, location, note)

	assessment, err := b.analyzeWithPrompt(ctx, imagePath, prompt)
	if err != nil {
		// fall back to the operator's raw input, the test continues
		return api.MethodResult{
			Method:    MethodManualName,
			UserInput: userInput,
			Assessment: api.HazardAssessment{
				Issue:    "Based on user input: " + issue,
				Location: location,
				Note:     note,
			},
			Error: err.Error(),
		}, nil
	}

	fmt.Println("\nAI analysis based on your input:")
	fmt.Printf("  Issue: %s\n", assessment.Issue)
	fmt.Printf("  Location: %s\n", assessment.Location)
	fmt.Printf("  Note: %s\n", assessment.Note)

	return api.MethodResult{
		Method:     MethodManualName,
		UserInput:  userInput,
		Assessment: *assessment,
	}, nil
}

type followUpResponse struct {
	InitialAnalysis  string `json:"initial_analysis"`
	ConfidenceLevel  string `json:"confidence_level"`
	FollowUpQuestion string `json:"follow_up_question"`
	Reasoning        string `json:"reasoning"`
}

// MethodFollowUp has the model analyze the image and ask one clarifying
// question, answered by the operator, before the final assessment.
func (b *Benchmark) MethodFollowUp(ctx context.Context, imagePath string) (api.MethodResult, error) {
	bold := color.New(color.Bold)
	fmt.Println()
	bold.Println("METHOD 2: AI ANALYSIS WITH FOLLOW-UP")

	image, err := LoadImage(imagePath)
	if err != nil {
		return api.MethodResult{}, err
	}

	followUpPrompt := fmt.Sprintf(`%s

TASK: Analyze this factory image and generate ONE specific follow-up question that would help you provide a more accurate safety assessment.

OUTPUT FORMAT (JSON only):
{
    "initial_analysis": "brief description of what you see",
    "confidence_level": "high|medium|low",
    "follow_up_question": "one specific question to improve accuracy",
    "reasoning": "why this question would help"
}`, benchmarkSystemPrompt)

	resp, err := b.vision.AnalyzeImage(ctx, api.VisionRequest{
		Prompt: followUpPrompt,
		Image:  image,
	})
	if err != nil {
		return errorMethodResult(MethodFollowUpName, fmt.Errorf("AI analysis failed: %w", err)), nil
	}

	var followUp followUpResponse
	if err := json.Unmarshal([]byte(ExtractJSON(resp)), &followUp); err != nil {
		return errorMethodResult(MethodFollowUpName, fmt.Errorf("JSON parsing failed: %w", err)), nil
	}

	fmt.Printf("\nAI initial analysis: %s\n", followUp.InitialAnalysis)
	fmt.Printf("Follow-up question: %s\n", followUp.FollowUpQuestion)

	userAnswer, err := b.prompter.Prompt("\nYour answer:")
	if err != nil {
		return api.MethodResult{}, err
	}

	finalPrompt := fmt.Sprintf(`%s

CONTEXT: You previously analyzed this image and asked: "%s"
USER ANSWER: "%s"

TASK: Now provide your final safety assessment.

OUTPUT FORMAT (JSON only):
{
    "issue": "specific safety issue/hazard",
    "location": "specific location in facility",
    "note": "additional safety details and severity",
    "confidence_level": "high|medium|low",
    "capa": "corrective and preventive action recommendation"
}`, benchmarkSystemPrompt, followUp.FollowUpQuestion, userAnswer)

	assessment, err := b.analyzeWithPrompt(ctx, imagePath, finalPrompt)
	if err != nil {
		result := errorMethodResult(MethodFollowUpName, err)
		result.FollowUpQuestion = followUp.FollowUpQuestion
		result.UserAnswer = userAnswer
		return result, nil
	}

	return api.MethodResult{
		Method:           MethodFollowUpName,
		FollowUpQuestion: followUp.FollowUpQuestion,
		UserAnswer:       userAnswer,
		Assessment:       *assessment,
	}, nil
}

// CollectGroundTruth asks the operator for the actual correct
// assessment used to score both methods.
func (b *Benchmark) CollectGroundTruth() (api.GroundTruth, error) {
	bold := color.New(color.Bold)
	fmt.Println()
	bold.Println("GROUND TRUTH (Actual Correct Answer)")
	fmt.Println("Based on the image, what is the ACTUAL correct assessment?")

	issue, err := b.prompter.Prompt("\nActual issue/hazard:")
	if err != nil {
		return api.GroundTruth{}, err
	}
	location, err := b.prompter.Prompt("Actual location:")
	if err != nil {
		return api.GroundTruth{}, err
	}
	note, err := b.prompter.Prompt("Actual notes:")
	if err != nil {
		return api.GroundTruth{}, err
	}

	return api.GroundTruth{
		Issue:    issue,
		Location: location,
		Note:     note,
	}, nil
}

// Evaluate asks a text model to score both method results against the
// ground truth.
func (b *Benchmark) Evaluate(ctx context.Context, m1, m2 api.MethodResult, gt api.GroundTruth) (api.HazardEvaluation, error) {
	fmt.Println("\nEvaluating accuracy...")

	prompt := fmt.Sprintf(`You are an expert evaluator comparing two safety assessment methods against the ground truth.

METHOD 1 RESULT:
Issue: %s
Location: %s
Note: %s

METHOD 2 RESULT:
Issue: %s
Location: %s
Note: %s

GROUND TRUTH (CORRECT ANSWER):
Issue: %s
Location: %s
Note: %s

TASK: Compare each method against the ground truth and determine accuracy percentages.

OUTPUT FORMAT (JSON only):
{
    "method1_accuracy": 85,
    "method2_accuracy": 92,
    "winner": "method1|method2|tie",
    "method1_analysis": "detailed comparison of method 1 vs ground truth",
    "method2_analysis": "detailed comparison of method 2 vs ground truth",
    "overall_assessment": "which method performed better and why"
}`,
		m1.Assessment.Issue, m1.Assessment.Location, m1.Assessment.Note,
		m2.Assessment.Issue, m2.Assessment.Location, m2.Assessment.Note,
		gt.Issue, gt.Location, gt.Note)

	stream, err := b.lm.Generate(ctx, api.GenerationRequest{
		Prompt: prompt,
	})
	if err != nil {
		return api.HazardEvaluation{Winner: "error"}, fmt.Errorf("evaluation failed: %w", err)
	}

	output, err := api.StreamReadAll(ctx, stream)
	if err != nil {
		return api.HazardEvaluation{Winner: "error"}, fmt.Errorf("evaluation failed: %w", err)
	}

	var evaluation api.HazardEvaluation
	if err := json.Unmarshal([]byte(ExtractJSON(output)), &evaluation); err != nil {
		return api.HazardEvaluation{Winner: "error"}, fmt.Errorf("failed to parse evaluation response: %w", err)
	}

	return evaluation, nil
}

// RunSingle runs both methods on one image and scores them.
func (b *Benchmark) RunSingle(ctx context.Context, imagePath string, testNumber int) (*TestResult, error) {
	bold := color.New(color.Bold)
	fmt.Println()
	bold.Printf("BENCHMARK TEST #%d\n", testNumber)
	fmt.Printf("Image: %s\n", filepath.Base(imagePath))

	if _, err := os.Stat(imagePath); err != nil {
		return nil, fmt.Errorf("image not found: %s", imagePath)
	}

	method1, err := b.MethodManual(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	method2, err := b.MethodFollowUp(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	groundTruth, err := b.CollectGroundTruth()
	if err != nil {
		return nil, err
	}

	evaluation, err := b.Evaluate(ctx, method1, method2, groundTruth)
	if err != nil {
		fmt.Printf("Evaluation error: %v\n", err)
	}

	result := &TestResult{
		TestNumber:  testNumber,
		ImagePath:   imagePath,
		Method1:     method1,
		Method2:     method2,
		GroundTruth: groundTruth,
		Evaluation:  evaluation,
	}

	b.displayResults(result)
	return result, nil
}

// RunFull runs the complete suite. It requires exactly five images and
// continues past individual test failures.
func (b *Benchmark) RunFull(ctx context.Context, imagePaths []string) (*SuiteResult, error) {
	if len(imagePaths) != suiteSize {
		return nil, fmt.Errorf("please provide exactly %d image paths for the benchmark", suiteSize)
	}

	fmt.Println("Starting 5-test factory hazard detection benchmark")
	fmt.Println("You'll compare Manual Input vs AI Follow-up methods")

	results := make([]TestResult, 0, suiteSize)
	method1Scores := make([]float64, 0, suiteSize)
	method2Scores := make([]float64, 0, suiteSize)

	for i, imagePath := range imagePaths {
		result, err := b.RunSingle(ctx, imagePath, i+1)
		if err != nil {
			color.Red("Error in test %d: %v", i+1, err)
			continue
		}

		results = append(results, *result)
		method1Scores = append(method1Scores, result.Evaluation.Method1Accuracy)
		method2Scores = append(method2Scores, result.Evaluation.Method2Accuracy)
	}

	avg1 := average(method1Scores)
	avg2 := average(method2Scores)

	b.displayFinalSummary(avg1, avg2, method1Scores, method2Scores)

	winner := "tie"
	if avg1 > avg2 {
		winner = "method1"
	} else if avg2 > avg1 {
		winner = "method2"
	}

	return &SuiteResult{
		Summary: SuiteSummary{
			TotalTests:     len(results),
			Method1Average: avg1,
			Method2Average: avg2,
			Method1Scores:  method1Scores,
			Method2Scores:  method2Scores,
			Winner:         winner,
		},
		Results: results,
	}, nil
}

func (b *Benchmark) analyzeWithPrompt(ctx context.Context, imagePath, prompt string) (*api.HazardAssessment, error) {
	image, err := LoadImage(imagePath)
	if err != nil {
		return nil, err
	}

	resp, err := b.vision.AnalyzeImage(ctx, api.VisionRequest{
		Prompt: prompt,
		Image:  image,
	})
	if err != nil {
		return nil, fmt.Errorf("AI analysis failed: %w", err)
	}

	var assessment api.HazardAssessment
	if err := json.Unmarshal([]byte(ExtractJSON(resp)), &assessment); err != nil {
		return nil, fmt.Errorf("JSON parsing failed: %w", err)
	}

	return &assessment, nil
}

func (b *Benchmark) displayResults(result *TestResult) {
	bold := color.New(color.Bold)

	fmt.Println()
	bold.Printf("TEST #%d RESULTS\n", result.TestNumber)

	fmt.Println("\nMethod 1 (Manual Input + AI Analysis):")
	fmt.Printf("  %s\n", result.Method1.Assessment.Issue)
	fmt.Printf("  Accuracy: %.0f%%\n", result.Evaluation.Method1Accuracy)

	fmt.Println("\nMethod 2 (AI Follow-up):")
	fmt.Printf("  %s\n", result.Method2.Assessment.Issue)
	fmt.Printf("  Accuracy: %.0f%%\n", result.Evaluation.Method2Accuracy)

	switch result.Evaluation.Winner {
	case "method1":
		color.Green("\nWINNER: Method 1 (Manual Input)")
	case "method2":
		color.Green("\nWINNER: Method 2 (AI Follow-up)")
	default:
		color.Yellow("\nRESULT: Tie or Error")
	}

	fmt.Printf("\nAssessment: %s\n", result.Evaluation.OverallAssessment)
}

func (b *Benchmark) displayFinalSummary(avg1, avg2 float64, scores1, scores2 []float64) {
	bold := color.New(color.Bold)

	fmt.Println()
	bold.Println("FINAL BENCHMARK RESULTS")

	fmt.Println("\nAverage accuracy:")
	fmt.Printf("  Method 1 (Manual Input): %.1f%%\n", avg1)
	fmt.Printf("  Method 2 (AI Follow-up): %.1f%%\n", avg2)

	fmt.Println("\nIndividual test scores:")
	for i := range scores1 {
		fmt.Printf("  Test %d: Method1=%.0f%% | Method2=%.0f%%\n", i+1, scores1[i], scores2[i])
	}

	if avg1 > avg2 {
		color.Green("\nOVERALL WINNER: Method 1 (Manual Input)")
		fmt.Printf("  Advantage: %.1f percentage points\n", avg1-avg2)
	} else if avg2 > avg1 {
		color.Green("\nOVERALL WINNER: Method 2 (AI Follow-up)")
		fmt.Printf("  Advantage: %.1f percentage points\n", avg2-avg1)
	} else {
		color.Yellow("\nRESULT: Tie")
	}
}

func errorMethodResult(method string, err error) api.MethodResult {
	return api.MethodResult{
		Method: method,
		Assessment: api.HazardAssessment{
			Issue:           "AI analysis failed",
			Location:        "N/A",
			Note:            "N/A",
			ConfidenceLevel: "error",
		},
		Error: err.Error(),
	}
}

func average(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
