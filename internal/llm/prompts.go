package llm

import (
	"fmt"
	"strings"
)

// FactCheckSystem is the system instruction shared by both pipeline stages
const FactCheckSystem = "You are a careful fact-checking assistant. Answer only from well-established knowledge and say so when you are unsure."

// ClaimPrompt asks for 3-5 verifiable claims as a numbered list
func ClaimPrompt(title, transcript string) string {
	return fmt.Sprintf(`Analyze this video transcript and extract the main factual claims that can be fact-checked.

Video Title: %s

Transcript: %s

Please:
1. Identify 3-5 key factual claims made in the video
2. Focus on specific, verifiable statements (numbers, dates, scientific facts, historical events)
3. Ignore opinions, predictions, or subjective statements
4. Format as a numbered list

Example format:
1. [Specific factual claim from the video]
2. [Another factual claim]
`, title, transcript)
}

// FactCheckPrompt asks for a status, explanation and confidence per claim
func FactCheckPrompt(claims string) string {
	return fmt.Sprintf(`Please fact-check these claims from a YouTube video. For each claim:
1. Assess if it's TRUE, FALSE, or PARTIALLY TRUE/MISLEADING
2. Provide a brief explanation with reasoning
3. If possible, mention reliable sources

Claims to check:
%s

Format your response clearly for each claim with:
- Status: [TRUE/FALSE/PARTIALLY TRUE]
- Explanation: [Brief factual explanation]
- Confidence: [High/Medium/Low]
`, strings.TrimSpace(claims))
}

// AnalysisPrompt asks for claims and verdicts in one JSON document over a
// timestamped transcript
func AnalysisPrompt(title, timestamped string) string {
	return fmt.Sprintf(`You are a fact-checking assistant. Your task is to analyze a YouTube video transcript, identify factual claims (excluding opinions), verify them using only your internal knowledge, and provide confidence levels with brief explanations. Follow these steps:

1. Identify factual claims (statements that can be objectively verified as true or false).
2. Exclude opinions, subjective statements, or non-verifiable claims.
3. For each factual claim:
   - Verify its accuracy using your internal knowledge (no external searches).
   - Assign a confidence level:
     - HIGH: You are certain of the accuracy (e.g., well-established fact).
     - MEDIUM: Likely accurate but some uncertainty exists.
     - LOW: Significant uncertainty or contradictory information.
     - UNKNOWN: Insufficient knowledge to verify.
   - Provide a brief explanation (1-2 sentences) for your verification.
4. Return the results in JSON format with the following structure:
   {
     "claims": [
       {
         "text": "The claim text",
         "timestamp": "Start time in seconds (e.g., 10.5)",
         "verification_status": "TRUE/FALSE/UNKNOWN",
         "confidence": "HIGH/MEDIUM/LOW/UNKNOWN",
         "explanation": "Brief explanation of verification"
       }
     ],
     "summary": {
       "total_claims": "Integer",
       "true_count": "Integer",
       "false_count": "Integer",
       "unknown_count": "Integer",
       "video_length_analyzed": "Length of transcript analyzed in seconds"
     }
   }

Video Title: %s

Here is the transcript with timestamps:
`+"```"+`
%s
`+"```"+`

Analyze the transcript and return the results in the specified JSON format. Ensure the JSON is valid and properly formatted.
`, title, timestamped)
}
