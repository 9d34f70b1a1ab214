package tools

import "github.com/hr7657316/education-ai/pkg/core/live"

// Tool names form a closed set. Anything else is answered with an
// "unknown function" result rather than an error.
const (
	NameStickyNoteHint = "stickyNoteHint"
	NameWriteOnCanvas  = "writeOnCanvas"
	NameReplaceAllCode = "replaceAllCodeOnCanvas"
	NameUpdateCode     = "updateCodeOnCanvas"
	NameGenerateImage  = "generateImageOnCanvas"
	NameExecuteCode    = "executeCode"
	NameGenerateVideo  = "generateVideoOnCanvas"
)

// Declarations returns the function declarations advertised to the model at
// session setup. The descriptions steer the model toward the right tool, so
// they are deliberately prescriptive.
func Declarations() []live.FunctionDeclaration {
	return []live.FunctionDeclaration{
		{
			Name:        NameStickyNoteHint,
			Description: "Creates a yellow sticky note with a hint. Use this when the user asks for a hint or help. DO NOT modify their code when giving hints - just add a sticky note.",
			Parameters: &live.Schema{
				Type: live.TypeObject,
				Properties: map[string]*live.Schema{
					"hint": {
						Type:        live.TypeString,
						Description: "The hint text to show on the sticky note. Keep it concise and helpful.",
					},
				},
				Required: []string{"hint"},
			},
		},
		{
			Name:        NameWriteOnCanvas,
			Description: "Writes new text onto the canvas. ONLY use this when the canvas is completely empty for the first time (no existing code). If there is ANY existing code, use replaceAllCodeOnCanvas instead. NEVER use this if code already exists.",
			Parameters: &live.Schema{
				Type: live.TypeObject,
				Properties: map[string]*live.Schema{
					"text": {
						Type:        live.TypeString,
						Description: "The text to write on the canvas. For multi-line code, ensure proper formatting with line breaks and indentation. Each line of code should be on a separate line with appropriate spacing.",
					},
				},
				Required: []string{"text"},
			},
		},
		{
			Name:        NameReplaceAllCode,
			Description: "Replaces ALL text content on the canvas with new content. Use this when there is EXISTING code and the user asks to \"modify the code\", \"update the code\", \"change the code\". This completely replaces the old code. For hints, use stickyNoteHint instead.",
			Parameters: &live.Schema{
				Type: live.TypeObject,
				Properties: map[string]*live.Schema{
					"newCode": {
						Type:        live.TypeString,
						Description: "The complete updated code to display. CRITICAL: Format as properly structured code with line breaks between lines and proper indentation (2 or 4 spaces per indent level). Write the code exactly as you would in a code editor - with clear line separation and consistent spacing.",
					},
				},
				Required: []string{"newCode"},
			},
		},
		{
			Name:        NameUpdateCode,
			Description: "Finds a specific snippet of code and replaces just that part. Use this ONLY for small targeted fixes when you need to change a specific line or section without rewriting everything.",
			Parameters: &live.Schema{
				Type: live.TypeObject,
				Properties: map[string]*live.Schema{
					"oldCode": {
						Type:        live.TypeString,
						Description: "The exact snippet of incorrect code to find on the canvas.",
					},
					"newCode": {
						Type:        live.TypeString,
						Description: "The corrected code to replace just that snippet.",
					},
				},
				Required: []string{"oldCode", "newCode"},
			},
		},
		{
			Name:        NameGenerateImage,
			Description: "Generates an image and places it on the canvas. Use only when a visual diagram is necessary to explain a concept.",
			Parameters: &live.Schema{
				Type: live.TypeObject,
				Properties: map[string]*live.Schema{
					"prompt": {
						Type:        live.TypeString,
						Description: "A detailed prompt describing the image to be generated.",
					},
				},
				Required: []string{"prompt"},
			},
		},
		{
			Name:        NameExecuteCode,
			Description: "Executes JavaScript code and returns the output or errors. Use this to test code the student has written or to demonstrate how code works. Always execute code after writing it to verify it works correctly.",
			Parameters: &live.Schema{
				Type: live.TypeObject,
				Properties: map[string]*live.Schema{
					"code": {
						Type:        live.TypeString,
						Description: "The JavaScript code to execute. Can include function definitions and calls. Use console.log() for output.",
					},
				},
				Required: []string{"code"},
			},
		},
		{
			Name:        NameGenerateVideo,
			Description: "Generates an 8-second educational video that animates the current canvas content to explain the concept step-by-step. Use this when: (1) User explicitly asks for a video (\"show me a video\", \"animate this\", \"can you make a video\"); (2) Explaining complex multi-step processes that would benefit significantly from animation over static images; (3) Demonstrating algorithm execution, scientific processes, or mathematical transformations. The video will use the current canvas as a reference and animate it according to your prompt.",
			Parameters: &live.Schema{
				Type: live.TypeObject,
				Properties: map[string]*live.Schema{
					"animationPrompt": {
						Type:        live.TypeString,
						Description: "A detailed description of how to animate the canvas content from start to finish. Describe the step-by-step progression, movements, and transformations. Be specific about what changes and how.",
					},
				},
				Required: []string{"animationPrompt"},
			},
		},
	}
}
