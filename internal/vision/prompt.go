package vision

import "fmt"

const analysisPromptTemplate = `As a professional design expert, analyze the provided image and create a detailed design transformation plan. Here are the requirements:

Design Style: %s
Design Type: %s
Custom Instructions: %s

IMPORTANT: I have uploaded an image of the current space. Carefully analyze it to understand the current layout, existing furniture, colors, materials, lighting conditions and overall condition.

DESIGN PHILOSOPHY: Focus on enhancing the existing space through strategic additions and modifications rather than complete furniture replacement. Emphasize decorative elements, accessories, lighting, textiles, and styling that work with existing furniture pieces.

RECOMMENDATION PRIORITIES:
- High: Essential changes for immediate impact (lighting, key decor pieces, color accents)
- Medium: Important enhancements (textiles, additional accessories, minor furniture adjustments)
- Low: Nice-to-have finishing touches (artwork, plants, small decorative objects)

For each recommendation, include exact product specifications (sizes, materials, colors, patterns), specific style descriptors, quantity needed, and placement details. Examples:
- "2-3 square throw pillows, 18x18 inches, terracotta linen texture and teal velvet with tassel trim"
- "Rattan floor lamp, 60-65 inches tall, natural woven shade, black metal base, bohemian style"
- "Jute area rug, 5x8 feet, natural fiber with geometric border pattern in rust/teal"

Only suggest furniture replacement as a last resort.

Format the response as JSON with this exact structure:
{
    "designConcept": {
        "style": "string",
        "colorPalette": ["array", "of", "colors"],
        "materials": ["array", "of", "materials"],
        "overallAssessment": "detailed assessment of current state",
        "transformationConcept": "comprehensive design transformation concept"
    },
    "recommendations": [
        {
            "area": "specific area (e.g. 'Seating Area', 'Lighting', 'Wall Decor')",
            "type": "product type (e.g. 'throw pillows', 'floor lamp', 'wall art')",
            "description": "detailed product description with exact specifications",
            "priority": "High/Medium/Low",
            "estimatedCost": "cost range",
            "placement": "specific placement instructions"
        }
    ],
    "colorPalette": {
        "primary": ["main colors"],
        "accent": ["accent colors"],
        "neutral": ["neutral colors"]
    },
    "materials": ["list", "of", "materials"],
    "lighting": "lighting recommendations",
    "styling": "styling and decor recommendations",
    "roomAnalysis": {
        "roomType": "e.g. living room",
        "mood": "e.g. cozy, airy",
        "styleDetails": ["notable", "style", "elements"]
    }
}`

// analysisPrompt builds the vision model prompt for one analysis request.
func analysisPrompt(style, customInstructions, designType string) string {
	if style == "" {
		style = "modern"
	}
	if designType == "" {
		designType = "interior redesign"
	}
	if customInstructions == "" {
		customInstructions = "Create an appealing and functional design"
	}
	return fmt.Sprintf(analysisPromptTemplate, style, designType, customInstructions)
}
