package mcp

import "github.com/mark3labs/mcp-go/mcp"

var analyzeToolDef = mcp.NewTool("style_analyze",
	mcp.WithDescription("Analyze a photo for skin tone and styling advice. "+
		"Reads the image at path, sends it to the analysis service and records the result in history. "+
		"If a result is on display it is dismissed first."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to an image file")),
	mcp.WithString("gender", mcp.Description("Profile attribute (e.g. Male, Female, Neutral); defaults to the current selection")),
)

var historyToolDef = mcp.NewTool("style_history",
	mcp.WithDescription("List past analyses, newest first."),
)

var replayToolDef = mcp.NewTool("style_replay",
	mcp.WithDescription("Show a past analysis again by ID. Does not contact the analysis service."),
	mcp.WithString("id", mcp.Required(), mcp.Description("History entry ID from style_history")),
)

var resetToolDef = mcp.NewTool("style_reset",
	mcp.WithDescription("Dismiss the result on display and return to the input form."),
)

var chatToolDef = mcp.NewTool("style_chat",
	mcp.WithDescription("Ask the stylist a follow-up question about the analysis on display."),
	mcp.WithString("message", mcp.Required(), mcp.Description("The question")),
)

var stateToolDef = mcp.NewTool("style_state",
	mcp.WithDescription("Return the current view state, the result on display, history rows and the chat transcript."),
)
